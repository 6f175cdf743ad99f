// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package genio defines the abstract SNP source/sink chains: a
// chained source/sink that concatenates several heterogeneous backing
// files into one logical stream and tells the driver when the active
// child changes, so that input and output file sets can be kept in
// positional correspondence. No concrete on-disk format is
// implemented here; see internal/genfmt for one.
package genio

import (
	"errors"
	"fmt"

	"github.com/qctool-go/qctool/internal/genotype"
)

// VariantSetter is the callback-style protocol a Source backend uses
// to populate one variant record. A backend may invoke these methods
// in any order within a single ReadNext call; callers must only
// consider the record finalised once ReadNext returns.
type VariantSetter interface {
	SetSampleCount(n int)
	SetSNPID(id string)
	SetRSID(id string)
	SetChromosome(c genotype.Chromosome)
	SetPosition(pos int)
	SetAlleles(a1, a2 byte)
	SetGenotypeProbabilities(i int, aa, ab, bb float64)
}

// Source is one backing SNP data source. SampleCount is fixed for the
// source's lifetime. ReadNext reports ok=false (with a nil error) once
// the source is exhausted.
type Source interface {
	SampleCount() int
	// VariantCount returns the total number of variants this source
	// will yield, or -1 if unknown in advance.
	VariantCount() int
	ReadNext(v VariantSetter) (ok bool, err error)
	Close() error
}

// ErrSampleCountMismatch is returned when a chain's children disagree
// on sample count.
var ErrSampleCountMismatch = errors.New("genio: sources disagree on sample count")

// ChainSource presents an ordered list of Source children as one
// logical stream, crossing child boundaries transparently and
// reporting every crossing to the caller via ReadNext's boundary
// return value.
type ChainSource struct {
	children    []Source
	sampleCount int
	cur         int
	within      int
	closed      bool
}

// NewChainSource builds a ChainSource from one or more backing
// sources. All children must report the same SampleCount; a
// disagreement is fatal.
func NewChainSource(children ...Source) (*ChainSource, error) {
	if len(children) == 0 {
		return &ChainSource{sampleCount: 0}, nil
	}
	n := children[0].SampleCount()
	for _, ch := range children[1:] {
		if ch.SampleCount() != n {
			return nil, fmt.Errorf("%w: %d vs %d", ErrSampleCountMismatch, n, ch.SampleCount())
		}
	}
	return &ChainSource{children: children, sampleCount: n}, nil
}

// SampleCount returns N, the sample count shared by every child.
func (cs *ChainSource) SampleCount() int { return cs.sampleCount }

// ChildCount returns the number of backing sources in the chain.
func (cs *ChainSource) ChildCount() int { return len(cs.children) }

// VariantCount returns the total variant count across all children,
// or -1 if any child's count is unknown.
func (cs *ChainSource) VariantCount() int {
	total := 0
	for _, ch := range cs.children {
		n := ch.VariantCount()
		if n < 0 {
			return -1
		}
		total += n
	}
	return total
}

// ChildVariantCount returns child i's own variant count.
func (cs *ChainSource) ChildVariantCount(i int) int { return cs.children[i].VariantCount() }

// CurrentChildIndex returns the index of the source currently being
// read from.
func (cs *ChainSource) CurrentChildIndex() int { return cs.cur }

// CurrentWithinChildIndex returns how many variants have been read
// from the current child so far (0-based, i.e. the index of the next
// read).
func (cs *ChainSource) CurrentWithinChildIndex() int { return cs.within }

// ReadNext reads the next variant, crossing child boundaries
// transparently. crossed is true iff this read is the first one from
// a different child than the previous read (including the very first
// read, so callers can initialise sink routing uniformly).
func (cs *ChainSource) ReadNext(v VariantSetter) (ok bool, crossed bool, err error) {
	first := cs.cur == 0 && cs.within == 0
	for cs.cur < len(cs.children) {
		ok, err := cs.children[cs.cur].ReadNext(v)
		if err != nil {
			return false, false, fmt.Errorf("genio: reading child %d: %w", cs.cur, err)
		}
		if ok {
			crossedNow := first
			cs.within++
			return true, crossedNow, nil
		}
		cs.cur++
		cs.within = 0
		first = true
	}
	return false, false, nil
}

// Close closes every child source, returning the first error
// encountered.
func (cs *ChainSource) Close() error {
	if cs.closed {
		return nil
	}
	cs.closed = true
	var first error
	for _, ch := range cs.children {
		if err := ch.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
