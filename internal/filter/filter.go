// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package filter implements the SNP/sample filter tree: atomic
// predicates over a statistics engine composed with AND, OR and NOT,
// each short-circuiting and each tracking how often it caused a
// rejection.
package filter

import (
	"fmt"
	"strings"

	"github.com/qctool-go/qctool/internal/genotype"
	"github.com/qctool-go/qctool/internal/identlist"
)

// Env is any name-addressable statistic lookup a Condition can be
// evaluated against. *stats.Engine and sampleio's per-sample lookup
// both satisfy this interface, so the same Condition tree shape
// drives both the SNP filter and the sample filter.
type Env interface {
	ValueAsDouble(name string) (float64, error)
	ValueAsString(name string) (string, error)
}

// variantEnv is the narrower capability required by leaves that look
// at a SNP's identification fields directly (InIdentifierList,
// SNPIDMatches) rather than by statistic name, to avoid routing a
// position through the 5-significant-digit string formatting that
// Value.AsString applies to plain numeric statistics. *stats.Engine
// satisfies this; a sample-row Env does not, so these two leaves
// report an error if used in a sample filter tree.
type variantEnv interface {
	Current() *genotype.Variant
}

// Condition is a composable predicate evaluated against an Env.
type Condition interface {
	Satisfied(e Env) (bool, error)
	String() string
}

// counting wraps a Condition to track how many times it was evaluated
// and how many of those evaluations were rejections.
type counting struct {
	Condition
	evaluated    int
	rejected     int
	lastRan      bool
	lastRejected bool
}

func (c *counting) Satisfied(e Env) (bool, error) {
	ok, err := c.Condition.Satisfied(e)
	if err != nil {
		c.lastRan = false
		return false, err
	}
	c.evaluated++
	c.lastRan = true
	c.lastRejected = !ok
	if !ok {
		c.rejected++
	}
	return ok, nil
}

// Counted wraps cond so its evaluation and rejection counts can be
// read back via Evaluated/Rejected.
func Counted(cond Condition) *CountedCondition {
	return &CountedCondition{c: &counting{Condition: cond}}
}

// CountedCondition is a Condition with rejection bookkeeping attached.
type CountedCondition struct{ c *counting }

// Satisfied implements Condition.
func (cc *CountedCondition) Satisfied(e Env) (bool, error) { return cc.c.Satisfied(e) }

// String implements Condition.
func (cc *CountedCondition) String() string { return cc.c.Condition.String() }

// Evaluated returns how many times this condition has been evaluated.
func (cc *CountedCondition) Evaluated() int { return cc.c.evaluated }

// Rejected returns how many of those evaluations returned false.
func (cc *CountedCondition) Rejected() int { return cc.c.rejected }

// LastRan reports whether the most recent Satisfied call on this
// condition completed without error (and therefore updated
// LastRejected).
func (cc *CountedCondition) LastRan() bool { return cc.c.lastRan }

// LastRejected reports whether the most recent completed Satisfied
// call on this condition returned false.
func (cc *CountedCondition) LastRejected() bool { return cc.c.lastRejected }

// Tree pairs a filter's root Condition with the set of Counted leaves
// reachable within it, so a driver can report which sub-condition(s)
// caused a given rejection. Building the leaf list is the caller's job
// (they know which leaves they wrapped with Counted when assembling
// the tree); Tree itself only walks that flat list back for reporting.
type Tree struct {
	root   Condition
	leaves []*CountedCondition
}

// NewTree builds a Tree from root plus every Counted leaf condition
// reachable inside it.
func NewTree(root Condition, leaves ...*CountedCondition) *Tree {
	return &Tree{root: root, leaves: leaves}
}

// Satisfied evaluates the tree's root condition. Every leaf's
// last-evaluation state is cleared first, so a leaf skipped by
// short-circuiting on this call is not reported by Explain.
func (t *Tree) Satisfied(e Env) (bool, error) {
	for _, l := range t.leaves {
		l.c.lastRan = false
	}
	return t.root.Satisfied(e)
}

// String implements Condition.
func (t *Tree) String() string { return t.root.String() }

// Explain returns the description of every leaf condition that
// evaluated false on the most recently completed Satisfied call,
// in leaf-registration order.
func (t *Tree) Explain() []string {
	var out []string
	for _, l := range t.leaves {
		if l.LastRan() && l.LastRejected() {
			out = append(out, l.String())
		}
	}
	return out
}

// Counters returns, for every leaf, its cumulative (evaluated,
// rejected) counts keyed by the leaf's String() description.
func (t *Tree) Counters() map[string][2]int {
	out := make(map[string][2]int, len(t.leaves))
	for _, l := range t.leaves {
		out[l.String()] = [2]int{l.Evaluated(), l.Rejected()}
	}
	return out
}

// trivial always succeeds.
type trivial struct{}

// Trivial returns a condition that is always satisfied.
func Trivial() Condition { return trivial{} }

func (trivial) Satisfied(Env) (bool, error) { return true, nil }
func (trivial) String() string              { return "(trivial)" }

// epsilonRange implements InRange. Note epsilon is subtracted from
// BOTH bounds, not added to the lower and subtracted from the upper;
// historical outputs depend on this, so it stays.
type epsilonRange struct {
	name      string
	lo, hi    float64
	eps       float64
	inclusive bool
}

// InRange registers a range predicate on the named statistic.
// inclusive selects closed vs. open bounds.
func InRange(name string, lo, hi, epsilon float64, inclusive bool) Condition {
	return epsilonRange{name: name, lo: lo, hi: hi, eps: epsilon, inclusive: inclusive}
}

func (r epsilonRange) Satisfied(e Env) (bool, error) {
	v, err := e.ValueAsDouble(r.name)
	if err != nil {
		return false, err
	}
	lo, hi := r.lo-r.eps, r.hi-r.eps
	if r.inclusive {
		return v >= lo && v <= hi, nil
	}
	return v > lo && v < hi, nil
}

func (r epsilonRange) String() string {
	if r.inclusive {
		return fmt.Sprintf("%s in [%g,%g]", r.name, r.lo, r.hi)
	}
	return fmt.Sprintf("%s in (%g,%g)", r.name, r.lo, r.hi)
}

// greaterThan implements GreaterThan.
type greaterThan struct {
	name string
	lo   float64
	eps  float64
}

// GreaterThan registers a "> lower_bound - epsilon" predicate.
func GreaterThan(name string, lower, epsilon float64) Condition {
	return greaterThan{name: name, lo: lower, eps: epsilon}
}

func (g greaterThan) Satisfied(e Env) (bool, error) {
	v, err := e.ValueAsDouble(g.name)
	if err != nil {
		return false, err
	}
	return v > g.lo-g.eps, nil
}

func (g greaterThan) String() string { return fmt.Sprintf("%s > %g", g.name, g.lo) }

// lessThan implements LessThan.
type lessThan struct {
	name string
	hi   float64
	eps  float64
}

// LessThan registers a "< upper_bound - epsilon" predicate.
func LessThan(name string, upper, epsilon float64) Condition {
	return lessThan{name: name, hi: upper, eps: epsilon}
}

func (l lessThan) Satisfied(e Env) (bool, error) {
	v, err := e.ValueAsDouble(l.name)
	if err != nil {
		return false, err
	}
	return v < l.hi-l.eps, nil
}

func (l lessThan) String() string { return fmt.Sprintf("%s < %g", l.name, l.hi) }

// inIdentifierList implements InIdentifierList.
type inIdentifierList struct {
	list *identlist.List
}

// InIdentifierList registers a condition satisfied when the current
// variant's SNPID, RSID, or position appears in list.
// It requires a variantEnv (a *stats.Engine, not a sample-row Env).
func InIdentifierList(list *identlist.List) Condition {
	return inIdentifierList{list: list}
}

func (l inIdentifierList) Satisfied(e Env) (bool, error) {
	ve, ok := e.(variantEnv)
	if !ok {
		return false, fmt.Errorf("filter: InIdentifierList requires a SNP statistics environment")
	}
	v := ve.Current()
	return l.list.Contains(v.SNPID, v.RSID, v.Position), nil
}

func (l inIdentifierList) String() string {
	return fmt.Sprintf("SNPID/RSID/position-in-list(%s)", strings.Join(l.list.Files(), ","))
}

// snpIDMatches implements SNPIDMatches: a single '*' wildcard
// expression matched by prefix/suffix.
type snpIDMatches struct {
	expression     string
	prefix, suffix string
}

// SNPIDMatches registers a condition satisfied when the variant's
// SNPID matches expression, which may contain at most one '*'
// wildcard standing for any substring.
func SNPIDMatches(expression string) Condition {
	prefix, suffix := expression, ""
	if i := strings.IndexByte(expression, '*'); i >= 0 {
		prefix, suffix = expression[:i], expression[i+1:]
	}
	return snpIDMatches{expression: expression, prefix: prefix, suffix: suffix}
}

func (m snpIDMatches) Satisfied(e Env) (bool, error) {
	ve, ok := e.(variantEnv)
	if !ok {
		return false, fmt.Errorf("filter: SNPIDMatches requires a SNP statistics environment")
	}
	id := ve.Current().SNPID
	return strings.HasPrefix(id, m.prefix) && strings.HasSuffix(id, m.suffix) && len(id) >= len(m.prefix)+len(m.suffix), nil
}

func (m snpIDMatches) String() string { return fmt.Sprintf("SNPID-matches(%s)", m.expression) }

// compound is the shared implementation behind And/Or.
type compound struct {
	subs []Condition
	join string
}

func (c *compound) String() string {
	if len(c.subs) == 0 {
		return "(none)"
	}
	parts := make([]string, len(c.subs))
	for i, s := range c.subs {
		parts[i] = s.String()
	}
	return "(" + strings.Join(parts, " "+c.join+" ") + ")"
}

// Subconditions returns the direct children in evaluation order.
func (c *compound) Subconditions() []Condition { return c.subs }

// And is satisfied when every subcondition is, short-circuiting on the
// first failure.
type And struct{ compound }

// NewAnd builds an And over subs.
func NewAnd(subs ...Condition) *And { return &And{compound{subs: subs, join: "AND"}} }

// Satisfied implements Condition.
func (a *And) Satisfied(e Env) (bool, error) {
	for _, s := range a.subs {
		ok, err := s.Satisfied(e)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Or is satisfied when any subcondition is, short-circuiting on the
// first success.
type Or struct{ compound }

// NewOr builds an Or over subs.
func NewOr(subs ...Condition) *Or { return &Or{compound{subs: subs, join: "OR"}} }

// Satisfied implements Condition.
func (o *Or) Satisfied(e Env) (bool, error) {
	for _, s := range o.subs {
		ok, err := s.Satisfied(e)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Not inverts a condition.
type Not struct{ inner Condition }

// NewNot builds a Not over inner.
func NewNot(inner Condition) *Not { return &Not{inner: inner} }

// Satisfied implements Condition.
func (n *Not) Satisfied(e Env) (bool, error) {
	ok, err := n.inner.Satisfied(e)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// String implements Condition.
func (n *Not) String() string { return "NOT " + n.inner.String() }
