// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package genotype holds the in-memory representation of one SNP: its
// identifying fields and a per-sample genotype probability triple.
package genotype

import "fmt"

// Chromosome is a variant's chromosome label. The finite set below
// matches the autosomes plus the sex-determining tags used throughout
// the GEN/BGEN family; Unknown covers anything else.
type Chromosome int

const (
	Unknown Chromosome = iota
	Chr1
	Chr2
	Chr3
	Chr4
	Chr5
	Chr6
	Chr7
	Chr8
	Chr9
	Chr10
	Chr11
	Chr12
	Chr13
	Chr14
	Chr15
	Chr16
	Chr17
	Chr18
	Chr19
	Chr20
	Chr21
	Chr22
	ChrX
	ChrY
	ChrXY
	ChrMT
)

var chromosomeNames = map[Chromosome]string{
	Unknown: "NA",
	Chr1:    "01", Chr2: "02", Chr3: "03", Chr4: "04", Chr5: "05",
	Chr6: "06", Chr7: "07", Chr8: "08", Chr9: "09", Chr10: "10",
	Chr11: "11", Chr12: "12", Chr13: "13", Chr14: "14", Chr15: "15",
	Chr16: "16", Chr17: "17", Chr18: "18", Chr19: "19", Chr20: "20",
	Chr21: "21", Chr22: "22",
	ChrX: "0X", ChrY: "0Y", ChrXY: "XY", ChrMT: "MT",
}

var chromosomeByName = func() map[string]Chromosome {
	m := make(map[string]Chromosome, len(chromosomeNames))
	for c, name := range chromosomeNames {
		m[name] = c
	}
	// common spellings seen in GEN files alongside the zero-padded form.
	for i := 1; i <= 22; i++ {
		m[fmt.Sprintf("%d", i)] = Chromosome(i)
	}
	m["X"] = ChrX
	m["Y"] = ChrY
	m["0"] = Unknown
	m["NA"] = Unknown
	return m
}()

// ParseChromosome maps a textual chromosome label onto the enum.
// Unrecognised labels are not an error: they come back as Unknown.
func ParseChromosome(s string) Chromosome {
	if c, ok := chromosomeByName[s]; ok {
		return c
	}
	return Unknown
}

func (c Chromosome) String() string {
	if name, ok := chromosomeNames[c]; ok {
		return name
	}
	return "NA"
}

// IsAutosomal reports whether c is one of chromosomes 1-22. The
// per-sample accumulator and HWE-style statistics only apply to
// autosomal variants; sex-determining and unknown chromosomes are
// skipped.
func (c Chromosome) IsAutosomal() bool {
	return c >= Chr1 && c <= Chr22
}
