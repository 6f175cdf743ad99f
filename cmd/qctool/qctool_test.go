// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type qctoolSuite struct{}

var _ = check.Suite(&qctoolSuite{})

// genLine renders one data line in internal/genfmt's plain-text format:
// chromosome SNPID RSID position allele1 allele2, then one (AA,AB,BB)
// probability triple per sample.
func genLine(chr, snpID, rsid string, pos int, triples ...[3]float64) string {
	fields := []string{chr, snpID, rsid, fmt.Sprintf("%d", pos), "A", "G"}
	for _, t := range triples {
		fields = append(fields, fmt.Sprintf("%g", t[0]), fmt.Sprintf("%g", t[1]), fmt.Sprintf("%g", t[2]))
	}
	return strings.Join(fields, "\t")
}

func (s *qctoolSuite) TestQCFiltersAndRewrites(c *check.C) {
	dir := c.MkDir()
	genPath := filepath.Join(dir, "in.gen")
	lines := []string{
		// snpA: monomorphic (MAF 0), rejected by -incl-gt MAF,0.2
		genLine("1", "snpA", "rsA", 100, [3]float64{1, 0, 0}, [3]float64{1, 0, 0}),
		// snpB: balanced heterozygous, MAF 0.5, kept
		genLine("1", "snpB", "rsB", 200, [3]float64{0, 1, 0}, [3]float64{0, 1, 0}),
	}
	c.Assert(os.WriteFile(genPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644), check.IsNil)

	outPath := filepath.Join(dir, "out.gen")
	exclPath := filepath.Join(dir, "excl.gen")
	statsPath := filepath.Join(dir, "stats.txt")

	var stdout, stderr bytes.Buffer
	rc := qcCmd{}.RunCommand("qctool qc", []string{
		"-samples", "2",
		"-g", genPath,
		"-og", outPath,
		"-excl-g", exclPath,
		"-incl-gt", "MAF,0.2",
		"-stats-file", statsPath,
	}, nil, &stdout, &stderr)
	c.Assert(rc, check.Equals, 0, check.Commentf("stderr: %s", stderr.String()))

	kept, err := os.ReadFile(outPath)
	c.Assert(err, check.IsNil)
	c.Check(strings.Contains(string(kept), "snpB"), check.Equals, true)
	c.Check(strings.Contains(string(kept), "snpA"), check.Equals, false)

	dropped, err := os.ReadFile(exclPath)
	c.Assert(err, check.IsNil)
	c.Check(strings.Contains(string(dropped), "snpA"), check.Equals, true)

	statsText, err := os.ReadFile(statsPath)
	c.Assert(err, check.IsNil)
	c.Check(strings.HasPrefix(string(statsText), "row\t"), check.Equals, true)
	c.Check(strings.Contains(string(statsText), "snpB"), check.Equals, true)

	c.Check(strings.Contains(stdout.String(), "variants read 2"), check.Equals, true)
}

func (s *qctoolSuite) TestStatsOnlyDoesNotRewrite(c *check.C) {
	dir := c.MkDir()
	genPath := filepath.Join(dir, "in.gen")
	c.Assert(os.WriteFile(genPath, []byte(genLine("1", "snp1", "rs1", 1, [3]float64{1, 0, 0})+"\n"), 0o644), check.IsNil)
	statsPath := filepath.Join(dir, "stats.txt")

	var stdout, stderr bytes.Buffer
	rc := statsCmd{}.RunCommand("qctool stats", []string{
		"-samples", "1",
		"-g", genPath,
		"-stats-file", statsPath,
	}, nil, &stdout, &stderr)
	c.Assert(rc, check.Equals, 0, check.Commentf("stderr: %s", stderr.String()))

	statsText, err := os.ReadFile(statsPath)
	c.Assert(err, check.IsNil)
	c.Check(strings.Contains(string(statsText), "snp1"), check.Equals, true)
}

func (s *qctoolSuite) TestFilterRewritesWithoutStats(c *check.C) {
	dir := c.MkDir()
	genPath := filepath.Join(dir, "in.gen")
	lines := []string{
		genLine("1", "snpA", "rsA", 100, [3]float64{1, 0, 0}),
		genLine("1", "snpB", "rsB", 200, [3]float64{0, 1, 0}),
	}
	c.Assert(os.WriteFile(genPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644), check.IsNil)
	outPath := filepath.Join(dir, "out.gen")

	var stdout, stderr bytes.Buffer
	rc := filterCmd{}.RunCommand("qctool filter", []string{
		"-samples", "1",
		"-g", genPath,
		"-og", outPath,
		"-incl-gt", "MAF,0.2",
		"-force",
	}, nil, &stdout, &stderr)
	c.Assert(rc, check.Equals, 0, check.Commentf("stderr: %s", stderr.String()))

	kept, err := os.ReadFile(outPath)
	c.Assert(err, check.IsNil)
	c.Check(strings.Contains(string(kept), "snpB"), check.Equals, true)
	c.Check(strings.Contains(string(kept), "snpA"), check.Equals, false)
}

func (s *qctoolSuite) TestMissingSamplesFlagIsUsageError(c *check.C) {
	var stdout, stderr bytes.Buffer
	rc := qcCmd{}.RunCommand("qctool qc", []string{"-g", "nonexistent"}, nil, &stdout, &stderr)
	c.Check(rc, check.Equals, 1)
	c.Check(strings.Contains(stderr.String(), "-samples"), check.Equals, true)
}

func (s *qctoolSuite) TestMainDispatchesUnknownSubcommand(c *check.C) {
	var stdout, stderr bytes.Buffer
	rc := handler.RunCommand("qctool", []string{"bogus"}, nil, &stdout, &stderr)
	c.Check(rc, check.Equals, 2)
	c.Check(strings.Contains(stderr.String(), "bogus"), check.Equals, true)
}
