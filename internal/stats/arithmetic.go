// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package stats

import (
	"fmt"
	"strings"
)

// arithmeticOps lists the operator characters CompileArithmetic tries,
// in order: "/" before "*" before "+" before "-". An expression is
// treated as that binary operation only when it contains exactly one
// occurrence of the operator (splitting on it yields exactly two
// pieces); an expression with zero or two-or-more occurrences of an
// operator falls through to the next one, and ultimately to a plain
// name lookup. There is no precedence and no grouping; existing filter
// specifications depend on this exact splitting order.
var arithmeticOps = []struct {
	op   string
	comb func(a, b float64) float64
}{
	{"/", func(a, b float64) float64 { return a / b }},
	{"*", func(a, b float64) float64 { return a * b }},
	{"+", func(a, b float64) float64 { return a + b }},
	{"-", func(a, b float64) float64 { return a - b }},
}

// CompileArithmetic parses a statistic specification that may combine
// two registered statistic names with one of /, *, +, -, returning a
// Statistic that evaluates both operands against the engine at Process
// time. Plain names are resolved directly against e's registry.
func (e *Engine) CompileArithmetic(spec string) (Statistic, error) {
	spec = strings.TrimSpace(spec)
	for _, o := range arithmeticOps {
		bits := strings.Split(spec, o.op)
		if len(bits) != 2 {
			continue
		}
		first, err := e.CompileArithmetic(bits[0])
		if err != nil {
			continue
		}
		second, err := e.CompileArithmetic(bits[1])
		if err != nil {
			continue
		}
		comb := o.comb
		return StatisticFunc(func(eng *Engine) (Value, error) {
			a, err := eng.evalDouble(first)
			if err != nil {
				return Value{}, err
			}
			b, err := eng.evalDouble(second)
			if err != nil {
				return Value{}, err
			}
			return Double(comb(a, b)), nil
		}), nil
	}

	if !e.Has(spec) {
		return nil, fmt.Errorf("%w: %q", ErrStatisticNotFound, spec)
	}
	name := spec
	return StatisticFunc(func(eng *Engine) (Value, error) {
		return eng.Value(name)
	}), nil
}

// evalDouble evaluates an unregistered, ad hoc Statistic (such as the
// operands CompileArithmetic builds on the fly) without going through
// the name-keyed memo table, then coerces it to a double.
func (e *Engine) evalDouble(s Statistic) (float64, error) {
	v, err := s.Evaluate(e)
	if err != nil {
		return 0, err
	}
	return v.AsDouble()
}
