// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"io"

	"github.com/qctool-go/qctool/internal/cmdutil"
)

// filterCmd rewrites GEN data through the configured filters without
// computing or writing a per-SNP statistics file.
type filterCmd struct{}

var _ cmdutil.Handler = filterCmd{}

func (filterCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return runPipeline("filter", false, true)(prog, args, stdin, stdout, stderr)
}
