// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package stats

import (
	"math"

	"github.com/qctool-go/qctool/internal/genotype"
)

// Identifying-field statistics: these simply surface fields of the
// current variant's identification as engine-addressable columns, so
// SNPID/RSID/position/chromosome can appear in a stats file alongside
// the computed quantities.

func identField(get func(v *genotype.Variant) Value) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		return get(e.Current()), nil
	})
}

// SNPID registers the "SNPID" identifying-field statistic.
func SNPID(name string) Statistic {
	return identField(func(v *genotype.Variant) Value { return String(v.SNPID) })
}

// RSID registers the "RSID" identifying-field statistic.
func RSID(name string) Statistic {
	return identField(func(v *genotype.Variant) Value { return String(v.RSID) })
}

// Position registers the "position" identifying-field statistic.
func Position(name string) Statistic {
	return identField(func(v *genotype.Variant) Value { return Double(float64(v.Position)) })
}

// ChromosomeStat registers the "chromosome" identifying-field statistic.
func ChromosomeStat(name string) Statistic {
	return identField(func(v *genotype.Variant) Value { return String(v.Chromosome.String()) })
}

// MinorAllele registers the "minor_allele" statistic: the allele label
// with the lower mean frequency, ties broken toward allele1.
func MinorAllele(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		fa, fb := e.MeanAlleleFreqs()
		v := e.Current()
		if fb < fa {
			return String(string(v.Allele2)), nil
		}
		return String(string(v.Allele1)), nil
	})
}

// MajorAllele registers the "major_allele" statistic: the complement
// of MinorAllele.
func MajorAllele(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		fa, fb := e.MeanAlleleFreqs()
		v := e.Current()
		if fb < fa {
			return String(string(v.Allele1)), nil
		}
		return String(string(v.Allele2)), nil
	})
}

// MAF registers the "MAF" statistic: the lower of the two mean allele
// frequencies.
func MAF(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		fa, fb := e.MeanAlleleFreqs()
		return Double(math.Min(fa, fb)), nil
	})
}

// genotypeSum registers a statistic reading one component of
// Engine.GenotypeSums: the raw, unnormalised per-genotype sum across
// samples, not the mean genotype proportion.
func genotypeSum(pick func(aa, ab, bb float64) float64) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		aa, ab, bb := e.GenotypeSums()
		return Double(pick(aa, ab, bb)), nil
	})
}

// AA registers the "AA" statistic: the raw sum of p_AA across samples.
func AA(name string) Statistic { return genotypeSum(func(aa, _, _ float64) float64 { return aa }) }

// AB registers the "AB" statistic: the raw sum of p_AB across samples.
func AB(name string) Statistic { return genotypeSum(func(_, ab, _ float64) float64 { return ab }) }

// BB registers the "BB" statistic: the raw sum of p_BB across samples.
func BB(name string) Statistic { return genotypeSum(func(_, _, bb float64) float64 { return bb }) }

// genotypeMean registers a statistic reading one component of
// Engine.MeanGenotype.
func genotypeMean(pick func(aa, ab, bb float64) float64) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		aa, ab, bb := e.MeanGenotype()
		return Double(pick(aa, ab, bb)), nil
	})
}

// Heterozygosity registers the "heterozygosity" statistic: mean p_AB
// among non-missing samples. Unlike AA/AB/BB this is normalised,
// since heterozygosity really is the mean genotype proportion.
func Heterozygosity(name string) Statistic {
	return genotypeMean(func(_, ab, _ float64) float64 { return ab })
}

// Missing registers the "missing" statistic: the proportion of total
// missingness mass over the nominal sample count.
func Missing(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		n := e.NSamples()
		if n == 0 {
			return Double(math.NaN()), nil
		}
		return Double(e.MissingMass() / float64(n)), nil
	})
}

// missingCalls is the proportion of samples whose best call falls
// below threshold.
func missingCalls(e *Engine, threshold float64) float64 {
	n := e.NSamples()
	if n == 0 {
		return math.NaN()
	}
	var missing float64
	for _, t := range e.Current().Triples() {
		best := math.Max(t.AA, math.Max(t.AB, t.BB))
		if best < threshold {
			missing++
		}
	}
	return missing / float64(n)
}

// MissingCalls registers the "missing_calls" statistic at the
// conventional call threshold of 0.9.
func MissingCalls(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		return Double(missingCalls(e, 0.9)), nil
	})
}

// genotypeIndex identifies one of the three genotype classes for
// CallCount, in 0=AA, 1=AB, 2=BB order.
type genotypeIndex int

const (
	GenotypeAA genotypeIndex = iota
	GenotypeAB
	GenotypeBB
)

func (g genotypeIndex) pick(t genotype.Triple) float64 {
	switch g {
	case GenotypeAA:
		return t.AA
	case GenotypeAB:
		return t.AB
	default:
		return t.BB
	}
}

// CallCount registers a call_count statistic at the given genotype
// class and threshold: the count of samples whose probability for
// that genotype exceeds threshold.
func CallCount(genotype_ genotypeIndex, threshold float64) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		var count float64
		for _, t := range e.Current().Triples() {
			if genotype_.pick(t) > threshold {
				count++
			}
		}
		return Double(count), nil
	})
}

// machRSquaredCore is the Mach r-squared imputation-quality statistic
// (Li, Willer, Ding, Scheet & Abecasis 2010, supplementary S3).
func machRSquaredCore(triples []genotype.Triple) float64 {
	if len(triples) == 0 {
		return 0
	}
	var n, t1, t2 float64
	for _, t := range triples {
		n += t.Sum()
		e := t.AB + 2*t.BB
		t1 += e * e
		t2 += e
	}
	if n == 0 {
		if t2 == 0 {
			return 1
		}
		return 0
	}
	theta := t2 / (2 * n)
	if theta == 0 || theta == 1 {
		return 1
	}
	return (t1 - t2*t2/n) / (t2 * (1 - theta))
}

func machRWith(e *Engine, transform func(genotype.Triple) genotype.Triple) float64 {
	src := e.Current().Triples()
	if transform == nil {
		return machRSquaredCore(src)
	}
	transformed := make([]genotype.Triple, len(src))
	for i, t := range src {
		transformed[i] = transform(t)
	}
	return machRSquaredCore(transformed)
}

// fillTripleMachR fills a sample's missing mass in the same fixed
// 0.25/0.5/0.25 proportions fillTriple uses, so the two filling
// variants see identical pre-processed triples.
func fillTripleMachR(t genotype.Triple) genotype.Triple {
	deficit := 1 - t.Sum()
	return genotype.Triple{
		AA: t.AA + deficit*0.25,
		AB: t.AB + deficit*0.5,
		BB: t.BB + deficit*0.25,
	}
}

// PlainMachR registers the "mach_r2" statistic with no pre-processing.
func PlainMachR(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		return Double(machRWith(e, nil)), nil
	})
}

// FillingMachR registers a mach_r2 variant that fills missing mass
// before computing.
func FillingMachR(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		return Double(machRWith(e, fillTripleMachR)), nil
	})
}

// ScalingMachR registers a mach_r2 variant that rescales each sample's
// triple (zeroing below the 0.1 threshold) before computing.
func ScalingMachR(name string) Statistic {
	return StatisticFunc(func(e *Engine) (Value, error) {
		return Double(machRWith(e, scaleTriple)), nil
	})
}

// RegisterDefaults registers every built-in statistic on e in the
// order the qctool CLI exposes them by default: identifying fields,
// allele/genotype summaries, missingness, Hardy-Weinberg diagnostics
// and information/imputation-quality measures.
func RegisterDefaults(e *Engine) error {
	type reg struct {
		name string
		s    Statistic
	}
	regs := []reg{
		{"SNPID", SNPID("SNPID")},
		{"RSID", RSID("RSID")},
		{"chromosome", ChromosomeStat("chromosome")},
		{"position", Position("position")},
		{"minor_allele", MinorAllele("minor_allele")},
		{"major_allele", MajorAllele("major_allele")},
		{"MAF", MAF("MAF")},
		{"AA", AA("AA")},
		{"AB", AB("AB")},
		{"BB", BB("BB")},
		{"missing", Missing("missing")},
		{"missing_calls", MissingCalls("missing_calls")},
		{"heterozygosity", Heterozygosity("heterozygosity")},
		{"AA_call_count", CallCount(GenotypeAA, 0.9)},
		{"AB_call_count", CallCount(GenotypeAB, 0.9)},
		{"BB_call_count", CallCount(GenotypeBB, 0.9)},
		{"HWE", HWE("HWE")},
		{"MLIG", MLIG("MLIG")},
		{"MLIGHW", MLIGHW("MLIGHW")},
		{"HWLR", HWLR("HWLR")},
		{"information", PlainInformation("information")},
		{"information_filled", FillingInformation("information_filled")},
		{"information_scaled", ScalingInformation("information_scaled")},
		{"mach_r2", PlainMachR("mach_r2")},
		{"mach_r2_filled", FillingMachR("mach_r2_filled")},
		{"mach_r2_scaled", ScalingMachR("mach_r2_scaled")},
	}
	for _, r := range regs {
		if err := e.Register(r.name, r.s); err != nil {
			return err
		}
	}
	return nil
}
