// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package genfmt is a concrete genio.Source/genio.Sink backend for the
// plain-text member of the GEN/BGEN family: one line per variant,
// whitespace-separated fields
//
//	chromosome SNPID RSID position allele1 allele2 p_AA_1 p_AB_1 p_BB_1 p_AA_2 ...
//
// This is sufficient to drive the source/sink chains end to end; it
// is not a BGEN binary decoder. The chain interfaces are
// format-agnostic, so a binary backend can be added without touching
// them.
package genfmt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/qctool-go/qctool/internal/genio"
	"github.com/qctool-go/qctool/internal/genotype"
)

// ErrSampleCount is returned when a data line's field count is not
// consistent with the declared sample count.
var ErrSampleCount = errors.New("genfmt: line has wrong number of genotype fields for sample count")

// Source reads the plain-text GEN format from an io.Reader.
type Source struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	samples int
	count   int // -1 if unknown
}

// Open opens path as a genio.Source. A ".gz" suffix is decompressed
// transparently via pgzip.
func Open(path string, samples int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var rc io.ReadCloser = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(bufio.NewReaderSize(f, 1<<20))
		if err != nil {
			f.Close()
			return nil, err
		}
		rc = readCloser{zr, f}
	}
	return NewSource(rc, samples), nil
}

// readCloser pairs a pgzip.Reader with the underlying file so Close
// releases both.
type readCloser struct {
	io.Reader
	file *os.File
}

func (r readCloser) Close() error {
	cerr := r.file.Close()
	if closer, ok := r.Reader.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return cerr
}

// NewSource wraps an already-open reader (the caller keeps ownership
// of closing if rc is not itself an io.Closer chain from Open).
func NewSource(rc io.ReadCloser, samples int) *Source {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Source{rc: rc, scanner: scanner, samples: samples, count: -1}
}

// SampleCount implements genio.Source.
func (s *Source) SampleCount() int { return s.samples }

// VariantCount implements genio.Source; unknown for a streaming text
// source, so this always returns -1.
func (s *Source) VariantCount() int { return s.count }

// ReadNext implements genio.Source.
func (s *Source) ReadNext(v genio.VariantSetter) (bool, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		if err := parseLine(line, s.samples, v); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := s.scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}

// Close implements genio.Source.
func (s *Source) Close() error { return s.rc.Close() }

func parseLine(line string, samples int, v genio.VariantSetter) error {
	fields := strings.Fields(line)
	// chromosome SNPID RSID position allele1 allele2 then 3*samples probs
	const fixedFields = 6
	if len(fields) != fixedFields+3*samples {
		return fmt.Errorf("%w: got %d fields, want %d", ErrSampleCount, len(fields), fixedFields+3*samples)
	}
	pos, err := strconv.Atoi(fields[3])
	if err != nil {
		return fmt.Errorf("genfmt: bad position %q: %w", fields[3], err)
	}
	if len(fields[4]) != 1 || len(fields[5]) != 1 {
		return fmt.Errorf("genfmt: allele labels must be single characters: %q %q", fields[4], fields[5])
	}
	v.SetSampleCount(samples)
	v.SetChromosome(genotype.ParseChromosome(fields[0]))
	v.SetSNPID(fields[1])
	v.SetRSID(fields[2])
	v.SetPosition(pos)
	v.SetAlleles(fields[4][0], fields[5][0])
	for i := 0; i < samples; i++ {
		aa, err := strconv.ParseFloat(fields[fixedFields+3*i], 64)
		if err != nil {
			return fmt.Errorf("genfmt: bad probability: %w", err)
		}
		ab, err := strconv.ParseFloat(fields[fixedFields+3*i+1], 64)
		if err != nil {
			return fmt.Errorf("genfmt: bad probability: %w", err)
		}
		bb, err := strconv.ParseFloat(fields[fixedFields+3*i+2], 64)
		if err != nil {
			return fmt.Errorf("genfmt: bad probability: %w", err)
		}
		v.SetGenotypeProbabilities(i, aa, ab, bb)
	}
	return nil
}
