// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package identlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type identlistSuite struct{}

var _ = check.Suite(&identlistSuite{})

func writeFile(c *check.C, dir, name, content string) string {
	p := filepath.Join(dir, name)
	c.Assert(os.WriteFile(p, []byte(content), 0o644), check.IsNil)
	return p
}

func (s *identlistSuite) TestContainsBySNPIDRSIDOrPosition(c *check.C) {
	dir := c.MkDir()
	p := writeFile(c, dir, "ids.txt", "rs123\nrs456 900000\n")
	l, err := Load(p)
	c.Assert(err, check.IsNil)
	c.Check(l.Len(), check.Equals, 3)
	c.Check(l.Contains("snp1", "rs123", 1), check.Equals, true)
	c.Check(l.Contains("snp1", "rsX", 900000), check.Equals, true)
	c.Check(l.Contains("snp1", "rsX", 1), check.Equals, false)
}

func (s *identlistSuite) TestMissingFile(c *check.C) {
	_, err := Load(filepath.Join(c.MkDir(), "nope.txt"))
	c.Assert(errors.Is(err, ErrIdentifierListMissing), check.Equals, true)
}

func (s *identlistSuite) TestMultipleFilesMerge(c *check.C) {
	dir := c.MkDir()
	p1 := writeFile(c, dir, "a.txt", "rs1 rs2\n")
	p2 := writeFile(c, dir, "b.txt", "rs3\n")
	l, err := Load(p1, p2)
	c.Assert(err, check.IsNil)
	c.Check(l.Len(), check.Equals, 3)
	c.Check(l.Contains("", "rs3", 0), check.Equals, true)
}
