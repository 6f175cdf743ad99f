// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genio

import (
	"errors"
	"testing"

	"github.com/qctool-go/qctool/internal/genotype"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type chainSuite struct{}

var _ = check.Suite(&chainSuite{})

// memSource is a trivial in-memory Source for testing the chain.
type memSource struct {
	samples int
	n       int
	read    int
}

func (m *memSource) SampleCount() int  { return m.samples }
func (m *memSource) VariantCount() int { return m.n }
func (m *memSource) Close() error      { return nil }
func (m *memSource) ReadNext(v VariantSetter) (bool, error) {
	if m.read >= m.n {
		return false, nil
	}
	v.SetSampleCount(m.samples)
	v.SetSNPID("snp")
	v.SetPosition(m.read)
	for i := 0; i < m.samples; i++ {
		v.SetGenotypeProbabilities(i, 1, 0, 0)
	}
	m.read++
	return true, nil
}

type memSink struct {
	written int
	closed  bool
}

func (m *memSink) WriteNext(id genotype.Identification, n int, getAA, getAB, getBB GetProb) error {
	m.written++
	return nil
}
func (m *memSink) VariantsWritten() int { return m.written }
func (m *memSink) Close() error         { m.closed = true; return nil }

func (s *chainSuite) TestSampleCountMismatchIsFatal(c *check.C) {
	_, err := NewChainSource(&memSource{samples: 5, n: 1}, &memSource{samples: 6, n: 1})
	c.Assert(errors.Is(err, ErrSampleCountMismatch), check.Equals, true)
}

func (s *chainSuite) TestBoundaryCrossingReportedOnce(c *check.C) {
	src, err := NewChainSource(&memSource{samples: 2, n: 2}, &memSource{samples: 2, n: 3})
	c.Assert(err, check.IsNil)
	v := genotype.New(2)

	var crossings []bool
	for {
		ok, crossed, err := src.ReadNext(v)
		c.Assert(err, check.IsNil)
		if !ok {
			break
		}
		crossings = append(crossings, crossed)
	}
	c.Assert(crossings, check.DeepEquals, []bool{true, false, true, false, false})
}

func (s *chainSuite) TestSourceSinkCorrespondence(c *check.C) {
	src, err := NewChainSource(&memSource{samples: 1, n: 10}, &memSource{samples: 1, n: 10})
	c.Assert(err, check.IsNil)

	shared := &memSink{}
	sink := NewChainSink(shared)

	v := genotype.New(1)
	for {
		ok, _, err := src.ReadNext(v)
		c.Assert(err, check.IsNil)
		if !ok {
			break
		}
		err = sink.WriteNext(v.Identification, 1, func(i int) float64 { return 1 }, func(i int) float64 { return 0 }, func(i int) float64 { return 0 })
		c.Assert(err, check.IsNil)
	}
	c.Check(sink.VariantsWritten(), check.Equals, 20)
}

func (s *chainSuite) TestChainSinkAdvance(c *check.C) {
	a, b := &memSink{}, &memSink{}
	sink := NewChainSink(a, b)
	c.Assert(sink.CurrentChild(), check.Equals, 0)
	_ = sink.WriteNext(genotype.Identification{}, 0, nil, nil, nil)
	sink.Advance()
	c.Assert(sink.CurrentChild(), check.Equals, 1)
	_ = sink.WriteNext(genotype.Identification{}, 0, nil, nil, nil)
	c.Check(a.VariantsWritten(), check.Equals, 1)
	c.Check(b.VariantsWritten(), check.Equals, 1)
	c.Assert(sink.Close(), check.IsNil)
	c.Check(a.closed, check.Equals, true)
	c.Check(b.closed, check.Equals, true)
}
