// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mapper

import (
	"errors"
	"path/filepath"
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type mapperSuite struct{}

var _ = check.Suite(&mapperSuite{})

func fixedGlob(files []string) globLister {
	return func(pattern string) ([]string, error) {
		var out []string
		for _, f := range files {
			if ok, err := filepath.Match(pattern, f); err != nil {
				return nil, err
			} else if ok {
				out = append(out, f)
			}
		}
		return out, nil
	}
}

func (s *mapperSuite) TestIntegerWildcardRangeFilter(c *check.C) {
	m := newWithGlob(fixedGlob([]string{
		"chr1.gen", "chr5.gen", "chr100.gen", "chr101.gen", "chr0.gen", "chrX.gen",
	}))
	err := m.AddPair("chr#.gen", "out-#.gen")
	c.Assert(err, check.IsNil)
	// chr101 and chr0 are out of [1,101); chrX doesn't parse as decimal.
	c.Assert(m.InputCount(), check.Equals, 3)
	c.Check(m.Input(0), check.Equals, "chr1.gen")
	c.Check(m.MatchedWildcardPart(0), check.Equals, "1")
	c.Check(m.Output(m.OutputIndexOf(0)), check.Equals, "out-1.gen")
}

func (s *mapperSuite) TestWildcardMismatch(c *check.C) {
	m := newWithGlob(fixedGlob([]string{"chr1.gen"}))
	err := m.AddPair("chr#.gen", "out.gen")
	c.Assert(errors.Is(err, ErrWildcardMismatch), check.Equals, true)
}

func (s *mapperSuite) TestNoMatch(c *check.C) {
	m := newWithGlob(fixedGlob(nil))
	err := m.AddPair("chr#.gen", "out-#.gen")
	c.Assert(errors.Is(err, ErrNoMatch), check.Equals, true)
}

func (s *mapperSuite) TestManyToOneConsecutiveDedup(c *check.C) {
	m := newWithGlob(fixedGlob([]string{"chr1.gen", "chr2.gen"}))
	err := m.AddPairs([]string{"chr1.gen", "chr2.gen"}, []string{"merged.gen", "merged.gen"})
	c.Assert(err, check.IsNil)
	c.Assert(m.OutputCount(), check.Equals, 1)
	c.Check(m.OutputIndexOf(0), check.Equals, 0)
	c.Check(m.OutputIndexOf(1), check.Equals, 0)
}

func (s *mapperSuite) TestCardinalityMismatch(c *check.C) {
	m := New()
	err := m.AddPairs([]string{"a"}, []string{"b", "c"})
	c.Assert(err, check.Equals, ErrCardinality)
}

func (s *mapperSuite) TestPassThroughDistinctOutputs(c *check.C) {
	m := newWithGlob(fixedGlob([]string{"a.gen", "b.gen"}))
	err := m.AddPairs([]string{"a.gen", "b.gen"}, []string{"a.out", "b.out"})
	c.Assert(err, check.IsNil)
	c.Assert(m.OutputCount(), check.Equals, 2)
	c.Check(m.OutputIndexOf(0), check.Equals, 0)
	c.Check(m.OutputIndexOf(1), check.Equals, 1)
}
