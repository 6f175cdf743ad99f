// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genio

import "github.com/qctool-go/qctool/internal/genotype"

// GetProb is a per-sample genotype-probability accessor, as used by
// Sink.WriteNext's write protocol.
type GetProb func(sampleIndex int) float64

// Sink is one backing SNP data sink.
type Sink interface {
	WriteNext(id genotype.Identification, sampleCount int, getAA, getAB, getBB GetProb) error
	// VariantsWritten returns the number of variants written so far.
	VariantsWritten() int
	Close() error
}

// ChainSink mirrors ChainSource for outputs: it owns an ordered list
// of sinks and writes to whichever one is "active". The active sink
// only changes when the driver calls Advance, which it does on a
// ChainSource boundary crossing iff the target output index actually
// changed.
type ChainSink struct {
	children []Sink
	cur      int
	closed   bool
}

// NewChainSink builds a ChainSink from zero or more backing sinks. The
// first added sink is active.
func NewChainSink(children ...Sink) *ChainSink {
	return &ChainSink{children: children}
}

// AddSink appends one more sink to the chain.
func (cs *ChainSink) AddSink(s Sink) { cs.children = append(cs.children, s) }

// Advance switches the active sink to the next child. It panics if
// there is no next child; the driver is expected to only call Advance
// when the mapper says the output index should change, which by
// construction never runs past the last output.
func (cs *ChainSink) Advance() {
	if cs.cur+1 >= len(cs.children) {
		panic("genio: ChainSink.Advance: no further sink")
	}
	cs.cur++
}

// CurrentChild returns the index of the sink currently receiving writes.
func (cs *ChainSink) CurrentChild() int { return cs.cur }

// ChildCount returns the number of sinks in the chain.
func (cs *ChainSink) ChildCount() int { return len(cs.children) }

// Sink returns a read-only view of child j (a caller can still invoke
// its methods, but should not mutate chain bookkeeping through it).
func (cs *ChainSink) Sink(j int) Sink { return cs.children[j] }

// WriteNext writes to the currently active child.
func (cs *ChainSink) WriteNext(id genotype.Identification, sampleCount int, getAA, getAB, getBB GetProb) error {
	return cs.children[cs.cur].WriteNext(id, sampleCount, getAA, getAB, getBB)
}

// VariantsWritten returns the total number of variants written across
// all children.
func (cs *ChainSink) VariantsWritten() int {
	total := 0
	for _, ch := range cs.children {
		total += ch.VariantsWritten()
	}
	return total
}

// ChildVariantsWritten returns the count written to child j alone.
func (cs *ChainSink) ChildVariantsWritten(j int) int { return cs.children[j].VariantsWritten() }

// Close closes every child sink, flushing and releasing resources,
// returning the first error encountered while still closing the
// rest.
func (cs *ChainSink) Close() error {
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
