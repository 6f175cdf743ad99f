// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package stats

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// logFactorial returns log(n!) via math.Lgamma; the exact test's
// factorials are evaluated in log space to avoid overflow.
func logFactorial(n int) float64 {
	lg, _ := math.Lgamma(float64(n) + 1)
	return lg
}

// hweExactPValue is the two-sided Wigginton-Abecasis exact test for
// Hardy-Weinberg equilibrium, evaluated on rounded
// integer genotype counts. It returns ErrDomainError for negative
// counts, and p=1 when the total count is zero.
func hweExactPValue(nAA, nAB, nBB int) (float64, error) {
	if nAA < 0 || nAB < 0 || nBB < 0 {
		return 0, ErrDomainError
	}
	minHom, maxHom := nAA, nBB
	if minHom > maxHom {
		minHom, maxHom = maxHom, minHom
	}
	nA := 2*minHom + nAB
	nB := 2*maxHom + nAB
	total := nA + nB
	if total == 0 {
		return 1, nil
	}
	N := total / 2

	logBase := logFactorial(N) + logFactorial(nA) + logFactorial(nB) - logFactorial(2*N)

	logP := func(k int) float64 {
		return logBase + float64(k)*math.Ln2 - logFactorial((nA-k)/2) - logFactorial(k) - logFactorial((nB-k)/2)
	}

	parity := nA % 2
	maxLog := math.Inf(-1)
	var ks []int
	for k := parity; k <= nA; k += 2 {
		ks = append(ks, k)
		if l := logP(k); l > maxLog {
			maxLog = l
		}
	}

	obsLog := logP(nAB)
	const slack = 1e-9
	var sumAll, sumFiltered float64
	for _, k := range ks {
		l := logP(k)
		rel := math.Exp(l - maxLog)
		sumAll += rel
		if l <= obsLog+slack {
			sumFiltered += rel
		}
	}
	p := sumFiltered / sumAll
	if p > 1 {
		p = 1
	}
	return p, nil
}

// HWE registers the "HWE" statistic: -log10 of the two-sided exact
// test p-value on rounded genotype counts.
func HWE(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		nAA, nAB, nBB := e.RoundedGenotypeCounts()
		p, err := hweExactPValue(nAA, nAB, nBB)
		if err != nil {
			return Value{}, err
		}
		return Double(-math.Log10(p)), nil
	})
}

// mlig is the log-likelihood-free "maximum likelihood of genotype
// counts under the independent-genotype model",
// Π_g (n_g/N)^{n_g}, evaluated on rounded counts.
func mlig(e *Engine) (float64, error) {
	nAA, nAB, nBB := e.RoundedGenotypeCounts()
	N := nAA + nAB + nBB
	if N == 0 {
		return 1, nil
	}
	n := float64(N)
	return math.Pow(float64(nAA)/n, float64(nAA)) *
		math.Pow(float64(nAB)/n, float64(nAB)) *
		math.Pow(float64(nBB)/n, float64(nBB)), nil
}

// mligHW is the analogous quantity under the independent-alleles-in-
// -Hardy-Weinberg model, (p_A)^(2 n_AA) (2 p_A p_B)^(n_AB) (p_B)^(2 n_BB).
func mligHW(e *Engine) (float64, error) {
	nAA, nAB, nBB := e.RoundedGenotypeCounts()
	N := nAA + nAB + nBB
	if N == 0 {
		return 1, nil
	}
	twoN := 2 * float64(N)
	pA := (2*float64(nAA) + float64(nAB)) / twoN
	pB := (2*float64(nBB) + float64(nAB)) / twoN
	return math.Pow(pA, 2*float64(nAA)) *
		math.Pow(2*pA*pB, float64(nAB)) *
		math.Pow(pB, 2*float64(nBB)), nil
}

// MLIG registers the "MLIG" statistic.
func MLIG(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		v, err := mlig(e)
		if err != nil {
			return Value{}, err
		}
		return Double(v), nil
	})
}

// MLIGHW registers the "MLIGHW" statistic.
func MLIGHW(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		v, err := mligHW(e)
		if err != nil {
			return Value{}, err
		}
		return Double(v), nil
	})
}

// hwlrChiSquared is one shared distribution instance; CDF evaluation
// is stateless, so every HWLR evaluation can use it.
var hwlrChiSquared = distuv.ChiSquared{K: 1, Src: rand.NewSource(rand.Uint64())}

// HWLR registers the "HWLR" statistic: the chi-squared(df=1)
// complementary CDF of -2*(MLIGHW-MLIG), the likelihood-ratio test
// against Hardy-Weinberg equilibrium.
func HWLR(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		a, err := mligHW(e)
		if err != nil {
			return Value{}, err
		}
		b, err := mlig(e)
		if err != nil {
			return Value{}, err
		}
		stat := -2 * (a - b)
		if stat < 0 {
			stat = 0
		}
		return Double(1 - hwlrChiSquared.CDF(stat)), nil
	})
}
