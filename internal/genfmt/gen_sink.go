// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genfmt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/qctool-go/qctool/internal/genio"
	"github.com/qctool-go/qctool/internal/genotype"
)

// Sink writes the plain-text GEN format to an io.Writer.
type Sink struct {
	w       *bufio.Writer
	closers []io.Closer
	written int
}

// Create opens path for writing as a genio.Sink. A ".gz" suffix
// transparently pgzip-compresses the output.
func Create(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	var w io.Writer = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".gz") {
		zw := pgzip.NewWriter(f)
		w = zw
		closers = append([]io.Closer{zw}, closers...)
	}
	return &Sink{w: bufio.NewWriter(w), closers: closers}, nil
}

// NewSink wraps an already-open writer; the caller is responsible for
// closing it (Close on the returned Sink only flushes the buffer).
func NewSink(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w)}
}

// WriteNext implements genio.Sink.
func (s *Sink) WriteNext(id genotype.Identification, sampleCount int, getAA, getAB, getBB genio.GetProb) error {
	_, err := fmt.Fprintf(s.w, "%s\t%s\t%s\t%d\t%c\t%c", id.Chromosome, id.SNPID, id.RSID, id.Position, id.Allele1, id.Allele2)
	if err != nil {
		return err
	}
	for i := 0; i < sampleCount; i++ {
		_, err = fmt.Fprintf(s.w, "\t%g\t%g\t%g", getAA(i), getAB(i), getBB(i))
		if err != nil {
			return err
		}
	}
	if _, err := s.w.WriteString("\n"); err != nil {
		return err
	}
	s.written++
	return nil
}

// VariantsWritten implements genio.Sink.
func (s *Sink) VariantsWritten() int { return s.written }

// Close implements genio.Sink: flushes the buffer, then closes
// writers/files in the order they must be closed (compressor before
// underlying file).
func (s *Sink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}
