// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package accum implements the per-sample accumulator: a column-wise
// running sum of genotype probabilities across autosomal variants,
// from which per-sample missingness and heterozygosity are derived
// once streaming ends.
package accum

import (
	"math"

	"github.com/qctool-go/qctool/internal/genotype"
)

// Accumulator holds a length-N vector of running (sumAA, sumAB, sumBB)
// triples plus the count of autosomal variants folded in so far.
type Accumulator struct {
	sums []genotype.Triple
	k    int
}

// New returns a zeroed accumulator sized for n samples.
func New(n int) *Accumulator {
	return &Accumulator{sums: make([]genotype.Triple, n)}
}

// N returns the number of samples the accumulator is sized for.
func (a *Accumulator) N() int { return len(a.sums) }

// K returns the number of autosomal variants accumulated so far.
func (a *Accumulator) K() int { return a.k }

// Add folds one autosomal variant's triples into the running sums.
// The caller is responsible for only calling Add on autosomal
// variants; Chromosome.IsAutosomal is the gate the driver consults
// before calling Add.
func (a *Accumulator) Add(triples []genotype.Triple) {
	for i, t := range triples {
		a.sums[i].AA += t.AA
		a.sums[i].AB += t.AB
		a.sums[i].BB += t.BB
	}
	a.k++
}

// Sum returns the running (sumAA, sumAB, sumBB) triple for sample i.
func (a *Accumulator) Sum(i int) genotype.Triple { return a.sums[i] }

// Missing returns sample i's missingness: 1 - sum/K. NaN when K is
// zero.
func (a *Accumulator) Missing(i int) float64 {
	if a.k == 0 {
		return math.NaN()
	}
	t := a.sums[i]
	return 1 - t.Sum()/float64(a.k)
}

// Heterozygosity returns sample i's heterozygosity: sumAB / (sumAA +
// sumAB + sumBB). NaN when the sample's total mass is zero.
func (a *Accumulator) Heterozygosity(i int) float64 {
	t := a.sums[i]
	total := t.Sum()
	if total == 0 {
		return math.NaN()
	}
	return t.AB / total
}
