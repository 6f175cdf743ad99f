// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package stats

import (
	"github.com/qctool-go/qctool/internal/genotype"
)

// informationCore is J. Marchini's missing-data-aware information
// statistic, computed over whatever
// triples the caller supplies. The three registered variants differ
// only in how they pre-process each sample's triple before this
// shared calculation runs.
func informationCore(triples []genotype.Triple) float64 {
	if len(triples) == 0 {
		return 0
	}
	var nonMissingness, thetaMLE float64
	var v, c [3]float64
	for _, t := range triples {
		p := [3]float64{t.AA, t.AB, t.BB}
		nonMissingness += t.Sum()
		thetaMLE += t.AB + 2*t.BB
		for g := 0; g < 3; g++ {
			v[g] += p[g] * (1 - p[g])
			c[g] -= p[g] * p[(g+1)%3]
		}
	}
	if nonMissingness == 0 {
		return 0
	}
	thetaMLE /= 2 * nonMissingness
	if thetaMLE == 0 || thetaMLE == 1 {
		return 1
	}

	vU := 4*thetaMLE*thetaMLE*v[0] +
		(1-2*thetaMLE)*(1-2*thetaMLE)*v[1] +
		4*(1-thetaMLE)*(1-thetaMLE)*v[2] -
		4*thetaMLE*(1-2*thetaMLE)*c[0] -
		8*thetaMLE*(1-thetaMLE)*c[2] +
		4*(1-thetaMLE)*(1-2*thetaMLE)*c[1]

	return 1 - vU/(2*nonMissingness*thetaMLE*(1-thetaMLE))
}

// fillTriple distributes a sample's missing mass across the three
// genotypes in fixed 0.25/0.5/0.25 proportions, the same constants
// fillTripleMachR uses.
func fillTriple(t genotype.Triple) genotype.Triple {
	deficit := 1 - t.Sum()
	return genotype.Triple{
		AA: t.AA + deficit*0.25,
		AB: t.AB + deficit*0.5,
		BB: t.BB + deficit*0.25,
	}
}

// scaleTriple rescales a sample's triple to sum to 1, or zeroes it
// when its non-missing mass falls below the ignore threshold.
func scaleTriple(t genotype.Triple) genotype.Triple {
	const ignoreThreshold = 0.1
	sum := t.Sum()
	if sum < ignoreThreshold {
		return genotype.Triple{}
	}
	return genotype.Triple{AA: t.AA / sum, AB: t.AB / sum, BB: t.BB / sum}
}

func informationWith(e *Engine, transform func(genotype.Triple) genotype.Triple) float64 {
	src := e.Current().Triples()
	if transform == nil {
		return informationCore(src)
	}
	transformed := make([]genotype.Triple, len(src))
	for i, t := range src {
		transformed[i] = transform(t)
	}
	return informationCore(transformed)
}

// PlainInformation registers the "information" statistic computed
// directly over the reported genotype probabilities, with no
// pre-processing for missingness.
func PlainInformation(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		return Double(informationWith(e, nil)), nil
	})
}

// FillingInformation registers an information statistic that first
// fills each sample's missing mass in fixed 0.25/0.5/0.25 proportions.
func FillingInformation(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		return Double(informationWith(e, fillTriple)), nil
	})
}

// ScalingInformation registers an information statistic that first
// rescales each sample's triple to sum to 1 (zeroing samples below the
// 0.1 non-missing-mass threshold).
func ScalingInformation(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		return Double(informationWith(e, scaleTriple)), nil
	})
}
