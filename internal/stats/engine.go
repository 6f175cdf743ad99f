// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package stats implements the per-SNP statistics engine: a
// name-addressable, insertion-ordered registry of composable
// statistics evaluated lazily (and memoized) over the variant
// currently loaded into the engine.
package stats

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/qctool-go/qctool/internal/genotype"
)

// Errors raised by the engine.
var (
	ErrDuplicateStatistic = errors.New("stats: duplicate statistic name")
	ErrStatisticNotFound  = errors.New("stats: statistic not found")
	ErrTypeMismatch       = errors.New("stats: type mismatch")
	ErrDomainError        = errors.New("stats: domain error")
)

// Value is a statistic's computed result: either a float64 or a
// string, the two typed views every statistic exposes.
type Value struct {
	isString bool
	d        float64
	s        string
}

// Double wraps a numeric value.
func Double(d float64) Value { return Value{d: d} }

// String wraps a string value.
func String(s string) Value { return Value{isString: true, s: s} }

// AsDouble returns the numeric form, or ErrTypeMismatch if the value
// is string-only and does not parse as a number.
func (v Value) AsDouble() (float64, error) {
	if !v.isString {
		return v.d, nil
	}
	if f, err := strconv.ParseFloat(v.s, 64); err == nil {
		return f, nil
	}
	return 0, ErrTypeMismatch
}

// AsString returns the string form, formatting a numeric value to 5
// significant digits when the value was not constructed as a string.
func (v Value) AsString() string {
	if v.isString {
		return v.s
	}
	return strconv.FormatFloat(v.d, 'g', 5, 64)
}

// Statistic computes one named, engine-addressable quantity from the
// variant currently loaded into an Engine. Implementations must not
// cache state themselves; Evaluate is called at most once per Process
// call, since the engine memoizes its result.
type Statistic interface {
	Evaluate(e *Engine) (Value, error)
}

// StatisticFunc adapts a plain function to the Statistic interface.
type StatisticFunc func(e *Engine) (Value, error)

// Evaluate implements Statistic.
func (f StatisticFunc) Evaluate(e *Engine) (Value, error) { return f(e) }

// basic holds the summary quantities available to every statistic via
// the engine, recomputed
// whenever Process is called.
type basic struct {
	nSamples    int
	sumAA       float64
	sumAB       float64
	sumBB       float64
	nNonMissing int // samples with non-zero genotype mass
}

// Engine is the statistics registry plus per-variant evaluation state.
type Engine struct {
	order   []string
	byName  map[string]Statistic
	memo    map[string]Value
	memoErr map[string]error
	current *genotype.Variant
	b       basic
}

// NewEngine returns an empty statistics engine.
func NewEngine() *Engine {
	return &Engine{byName: map[string]Statistic{}}
}

// Register adds a statistic under name. Insertion order defines
// output column order. Duplicate names fail with
// ErrDuplicateStatistic.
func (e *Engine) Register(name string, s Statistic) error {
	if _, ok := e.byName[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateStatistic, name)
	}
	e.byName[name] = s
	e.order = append(e.order, name)
	return nil
}

// Names returns the registered statistic names in registration order.
func (e *Engine) Names() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Has reports whether name is registered.
func (e *Engine) Has(name string) bool {
	_, ok := e.byName[name]
	return ok
}

// Process sets the current variant, recomputes the basic summary, and
// invalidates all memoized values.
func (e *Engine) Process(v *genotype.Variant) {
	e.current = v
	e.memo = make(map[string]Value, len(e.order))
	e.memoErr = make(map[string]error, len(e.order))

	b := basic{nSamples: v.NumberOfSamples()}
	for _, t := range v.Triples() {
		b.sumAA += t.AA
		b.sumAB += t.AB
		b.sumBB += t.BB
		if t.Sum() > 0 {
			b.nNonMissing++
		}
	}
	e.b = b
}

// Current returns the variant last passed to Process.
func (e *Engine) Current() *genotype.Variant { return e.current }

// Basic accessors.

// NSamples returns the nominal sample count of the current variant.
func (e *Engine) NSamples() int { return e.b.nSamples }

// GenotypeSums returns (sumAA, sumAB, sumBB) across samples.
func (e *Engine) GenotypeSums() (aa, ab, bb float64) { return e.b.sumAA, e.b.sumAB, e.b.sumBB }

// NonMissingMass returns sumAA+sumAB+sumBB.
func (e *Engine) NonMissingMass() float64 { return e.b.sumAA + e.b.sumAB + e.b.sumBB }

// MissingMass returns n_samples - (sumAA+sumAB+sumBB).
func (e *Engine) MissingMass() float64 { return float64(e.b.nSamples) - e.NonMissingMass() }

// MeanGenotype returns (sumAA, sumAB, sumBB) / NonMissingMass.
func (e *Engine) MeanGenotype() (aa, ab, bb float64) {
	k := e.NonMissingMass()
	if k == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	return e.b.sumAA / k, e.b.sumAB / k, e.b.sumBB / k
}

// AlleleCounts returns (2*sumAA+sumAB, 2*sumBB+sumAB).
func (e *Engine) AlleleCounts() (a, b float64) {
	return 2*e.b.sumAA + e.b.sumAB, 2*e.b.sumBB + e.b.sumAB
}

// MeanAlleleFreqs returns AlleleCounts / (2*NonMissingMass).
func (e *Engine) MeanAlleleFreqs() (fa, fb float64) {
	k := e.NonMissingMass()
	if k == 0 {
		return math.NaN(), math.NaN()
	}
	a, b := e.AlleleCounts()
	return a / (2 * k), b / (2 * k)
}

// RoundedGenotypeCounts returns (sumAA, sumAB, sumBB) each rounded to
// the nearest non-negative integer, used by the HWE exact test.
func (e *Engine) RoundedGenotypeCounts() (nAA, nAB, nBB int) {
	round := func(f float64) int {
		r := math.Round(f)
		if r < 0 {
			r = 0
		}
		return int(r)
	}
	return round(e.b.sumAA), round(e.b.sumAB), round(e.b.sumBB)
}

// NNonMissing returns the count of samples whose triple has non-zero
// mass.
func (e *Engine) NNonMissing() int { return e.b.nNonMissing }

// Value returns the (memoized) value of the named statistic.
func (e *Engine) Value(name string) (Value, error) {
	if v, ok := e.memo[name]; ok {
		return v, nil
	}
	if err, ok := e.memoErr[name]; ok {
		return Value{}, err
	}
	s, ok := e.byName[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrStatisticNotFound, name)
	}
	v, err := s.Evaluate(e)
	if err != nil {
		e.memoErr[name] = err
		return Value{}, err
	}
	e.memo[name] = v
	return v, nil
}

// ValueAsDouble is Value().AsDouble(), the engine's "T=double" typed
// accessor.
func (e *Engine) ValueAsDouble(name string) (float64, error) {
	v, err := e.Value(name)
	if err != nil {
		return 0, err
	}
	return v.AsDouble()
}

// ValueAsString is Value().AsString(), the engine's "T=string" typed
// accessor.
func (e *Engine) ValueAsString(name string) (string, error) {
	v, err := e.Value(name)
	if err != nil {
		return "", err
	}
	return v.AsString(), nil
}

// FormatHeader writes column headers in registration order, preceded
// by a literal "row" column.
func (e *Engine) FormatHeader(w io.Writer) error {
	_, err := io.WriteString(w, "row\t"+strings.Join(e.order, "\t")+"\n")
	return err
}

// FormatValues writes the current row's values in registration order,
// preceded by the 1-based row index.
func (e *Engine) FormatValues(w io.Writer, row int) error {
	cols := make([]string, len(e.order))
	for i, name := range e.order {
		s, err := e.ValueAsString(name)
		if err != nil {
			return err
		}
		cols[i] = s
	}
	_, err := fmt.Fprintf(w, "%d\t%s\n", row, strings.Join(cols, "\t"))
	return err
}
