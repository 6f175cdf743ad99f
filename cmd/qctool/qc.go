// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"io"

	"github.com/qctool-go/qctool/internal/cmdutil"
)

// qcCmd runs the full filter/stats/rewrite pipeline: every SNP and
// sample is evaluated against the configured filters, kept SNPs are
// rewritten to -og, dropped SNPs optionally go to -excl-g, and
// per-SNP statistics are optionally written to -stats-file.
type qcCmd struct{}

var _ cmdutil.Handler = qcCmd{}

func (qcCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return runPipeline("qc", true, true)(prog, args, stdin, stdout, stderr)
}
