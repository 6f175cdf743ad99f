// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genotype

import (
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type variantSuite struct{}

var _ = check.Suite(&variantSuite{})

func (s *variantSuite) TestFlipAllelesSymmetric(c *check.C) {
	v := New(2)
	v.Allele1, v.Allele2 = 'A', 'G'
	v.SetTriple(0, Triple{AA: 0.1, AB: 0.3, BB: 0.5})
	v.SetTriple(1, Triple{AA: 0.2, AB: 0.6, BB: 0.1})

	before := append([]Triple(nil), v.Triples()...)
	v.FlipAlleles()
	c.Check(v.Allele1, check.Equals, byte('G'))
	c.Check(v.Allele2, check.Equals, byte('A'))
	for i, t := range v.Triples() {
		c.Check(t.AA, check.Equals, before[i].BB)
		c.Check(t.BB, check.Equals, before[i].AA)
		c.Check(t.AB, check.Equals, before[i].AB)
	}
}

func (s *variantSuite) TestFilterOutSamplesByIndexComposition(c *check.C) {
	mk := func() *Variant {
		v := New(6)
		for i := 0; i < 6; i++ {
			v.SetTriple(i, Triple{AA: float64(i), AB: 0, BB: 0})
		}
		return v
	}

	combined := mk()
	combined.FilterOutSamplesByIndex([]int{1, 2, 4})

	staged := mk()
	// Removing {1,4} then {2} (expressed against the original indices)
	// must equal removing the union {1,2,4} in one call; the staged
	// second call re-bases index 2 after the first pass.
	staged.FilterOutSamplesByIndex([]int{1, 4})
	staged.FilterOutSamplesByIndex([]int{1}) // index 2 of the original is now at position 1

	c.Assert(staged.NumberOfSamples(), check.Equals, combined.NumberOfSamples())
	for i := 0; i < staged.NumberOfSamples(); i++ {
		c.Check(staged.Triple(i), check.Equals, combined.Triple(i))
	}
}

func (s *variantSuite) TestSetNumberOfSamplesZeroInit(c *check.C) {
	v := New(2)
	v.SetTriple(0, Triple{AA: 1})
	v.SetTriple(1, Triple{AA: 1})
	v.SetNumberOfSamples(4)
	c.Assert(v.NumberOfSamples(), check.Equals, 4)
	c.Check(v.Triple(2), check.Equals, Triple{})
	c.Check(v.Triple(3), check.Equals, Triple{})
}

func (s *variantSuite) TestTripleInBounds(c *check.C) {
	c.Check(Triple{AA: 0.2, AB: 0.3, BB: 0.4}.InBounds(Tolerance), check.Equals, true)
	c.Check(Triple{AA: 0.6, AB: 0.6, BB: 0.6}.InBounds(Tolerance), check.Equals, false)
}

func (s *variantSuite) TestChromosomeAutosomal(c *check.C) {
	c.Check(Chr1.IsAutosomal(), check.Equals, true)
	c.Check(Chr22.IsAutosomal(), check.Equals, true)
	c.Check(ChrX.IsAutosomal(), check.Equals, false)
	c.Check(ChrMT.IsAutosomal(), check.Equals, false)
	c.Check(Unknown.IsAutosomal(), check.Equals, false)
	c.Check(ParseChromosome("07"), check.Equals, Chr7)
	c.Check(ParseChromosome("X"), check.Equals, ChrX)
}
