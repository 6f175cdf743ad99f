// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"io"

	"github.com/qctool-go/qctool/internal/cmdutil"
)

// statsCmd computes per-SNP (and, via the sample output flags,
// per-sample) statistics without rewriting any GEN data.
type statsCmd struct{}

var _ cmdutil.Handler = statsCmd{}

func (statsCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return runPipeline("stats", true, false)(prog, args, stdin, stdout, stderr)
}
