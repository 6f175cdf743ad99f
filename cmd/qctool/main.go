// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/qctool-go/qctool/internal/cmdutil"
	log "github.com/sirupsen/logrus"
)

var handler = cmdutil.Multi(map[string]cmdutil.Handler{
	"qc":     qcCmd{},
	"stats":  statsCmd{},
	"filter": filterCmd{},
})

func main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		log.StandardLogger().Formatter = &log.TextFormatter{DisableTimestamp: true}
	}
	os.Exit(handler.RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
