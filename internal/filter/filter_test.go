// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qctool-go/qctool/internal/genotype"
	"github.com/qctool-go/qctool/internal/identlist"
	"github.com/qctool-go/qctool/internal/stats"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type filterSuite struct{}

var _ = check.Suite(&filterSuite{})

func engineWith(c *check.C, maf float64, snpID string) *stats.Engine {
	e := stats.NewEngine()
	c.Assert(stats.RegisterDefaults(e), check.IsNil)
	v := genotype.New(2)
	v.SNPID = snpID
	v.Allele1, v.Allele2 = 'A', 'G'
	// a 2-sample, fully-called variant whose B-allele mass comes from
	// sample 0 alone, so MAF comes out to maf/2 (for maf <= 1)
	v.SetTriple(0, genotype.Triple{AA: 1 - maf, AB: 0, BB: maf})
	v.SetTriple(1, genotype.Triple{AA: 1, AB: 0, BB: 0})
	e.Process(v)
	return e
}

func (s *filterSuite) TestTrivialAlwaysSatisfied(c *check.C) {
	e := engineWith(c, 0.1, "rs1")
	ok, err := Trivial().Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
}

func (s *filterSuite) TestInRangeEpsilonQuirk(c *check.C) {
	e := engineWith(c, 0.4, "rs1")
	maf, err := e.ValueAsDouble("MAF")
	c.Assert(err, check.IsNil)
	// inclusive range [maf, maf] with epsilon 0 should match exactly
	cond := InRange("MAF", maf, maf, 0, true)
	ok, err := cond.Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	// epsilon shifts BOTH bounds down, so a range pinned at exactly the
	// observed value now excludes it once epsilon > 0
	cond = InRange("MAF", maf, maf, 0.01, true)
	ok, err = cond.Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)
}

func (s *filterSuite) TestAndShortCircuitsAndCounts(c *check.C) {
	e := engineWith(c, 0.1, "rs1")
	never := Counted(GreaterThan("MAF", 100, 0))
	unreached := Counted(LessThan("MAF", -100, 0))
	and := NewAnd(never, unreached)
	ok, err := and.Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)
	c.Check(never.Evaluated(), check.Equals, 1)
	c.Check(never.Rejected(), check.Equals, 1)
	c.Check(unreached.Evaluated(), check.Equals, 0)
}

func (s *filterSuite) TestOrShortCircuits(c *check.C) {
	e := engineWith(c, 0.1, "rs1")
	first := Counted(LessThan("MAF", 100, 0))
	unreached := Counted(GreaterThan("MAF", 100, 0))
	or := NewOr(first, unreached)
	ok, err := or.Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	c.Check(unreached.Evaluated(), check.Equals, 0)
}

func (s *filterSuite) TestEmptyAndIsTrueEmptyOrIsFalse(c *check.C) {
	e := engineWith(c, 0.1, "rs1")
	ok, err := NewAnd().Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	ok, err = NewOr().Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)
}

func (s *filterSuite) TestNotInverts(c *check.C) {
	e := engineWith(c, 0.1, "rs1")
	ok, err := NewNot(Trivial()).Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)
}

func (s *filterSuite) TestSNPIDMatchesWildcard(c *check.C) {
	e := engineWith(c, 0.1, "rs1-snpA")
	ok, err := SNPIDMatches("rs1-*A").Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	ok, err = SNPIDMatches("rs2-*A").Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)
}

// TestSNPIDMatchesNoWildcardIsPrefixSuffix: with no '*' present, the
// whole expression becomes the prefix and the suffix is empty, so
// matching is really "starts with the expression" rather than an
// anchored exact match.
func (s *filterSuite) TestSNPIDMatchesNoWildcardIsPrefixSuffix(c *check.C) {
	e := engineWith(c, 0.1, "rs1")
	ok, err := SNPIDMatches("rs1").Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	ok, err = SNPIDMatches("rs").Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	ok, err = SNPIDMatches("rs2").Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)
}

func (s *filterSuite) TestTreeExplainReportsRejectedLeaves(c *check.C) {
	e := engineWith(c, 0.1, "rs1")
	low := Counted(GreaterThan("MAF", 0.5, 0))
	high := Counted(LessThan("MAF", 0.05, 0))
	tree := NewTree(NewOr(low, high), low, high)
	ok, err := tree.Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, false)
	c.Check(tree.Explain(), check.DeepEquals, []string{low.String(), high.String()})
	counters := tree.Counters()
	c.Check(counters[low.String()], check.Equals, [2]int{1, 1})
	c.Check(counters[high.String()], check.Equals, [2]int{1, 1})
}

func (s *filterSuite) TestInIdentifierList(c *check.C) {
	dir := c.MkDir()
	p := filepath.Join(dir, "ids.txt")
	c.Assert(os.WriteFile(p, []byte("rs1\n"), 0o644), check.IsNil)
	list, err := identlist.Load(p)
	c.Assert(err, check.IsNil)
	e := engineWith(c, 0.1, "rs1")
	ok, err := InIdentifierList(list).Satisfied(e)
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
}
