// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package cmdutil implements a small subcommand dispatcher: a command
// table keyed by name, each entry runnable with explicit
// stdin/stdout/stderr and returning an exit code.
package cmdutil

import (
	"fmt"
	"io"
	"sort"
)

// Handler is anything runnable as a subcommand.
type Handler interface {
	RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int

// RunCommand implements Handler.
func (f HandlerFunc) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return f(prog, args, stdin, stdout, stderr)
}

// multi dispatches to one of a fixed set of named handlers, chosen by
// args[0], mirroring cmd.Multi.
type multi struct {
	handlers map[string]Handler
}

// Multi returns a Handler that looks up args[0] in handlers and runs
// it with the remaining arguments, or prints the available subcommand
// names and returns 2 if args is empty or names an unknown command.
func Multi(handlers map[string]Handler) Handler {
	return &multi{handlers: handlers}
}

// RunCommand implements Handler.
func (m *multi) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		m.usage(prog, stderr)
		return 2
	}
	h, ok := m.handlers[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "%s: unrecognized command %q\n", prog, args[0])
		m.usage(prog, stderr)
		return 2
	}
	return h.RunCommand(prog+" "+args[0], args[1:], stdin, stdout, stderr)
}

func (m *multi) usage(prog string, stderr io.Writer) {
	names := make([]string, 0, len(m.handlers))
	for name := range m.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(stderr, "usage: %s COMMAND [OPTIONS]\ncommands:\n", prog)
	for _, name := range names {
		fmt.Fprintf(stderr, "  %s\n", name)
	}
}
