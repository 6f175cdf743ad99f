// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package mapper expands wildcarded input file patterns against the
// filesystem, pairs each match with a rendered output filename, and
// tracks which output is the image of a given input.
package mapper

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Wildcard is the single character recognised as an integer wildcard
// in input patterns, conventionally '#'.
const Wildcard = '#'

// MinCapture and MaxCapture bound the decimal integer a wildcard
// capture must decode as to be retained: [MinCapture, MaxCapture).
const (
	MinCapture = 1
	MaxCapture = 101
)

var (
	// ErrWildcardMismatch is returned when the output template does
	// not contain the wildcard character iff the input pattern does.
	ErrWildcardMismatch = errors.New("mapper: output template must contain the wildcard iff the input pattern does")
	// ErrNoMatch is returned when an input pattern matches no
	// filesystem entry (after range-filtering wildcard captures).
	ErrNoMatch = errors.New("mapper: pattern matches no existing file")
	// ErrCardinality is returned by AddPairs when the input and output
	// lists differ in length.
	ErrCardinality = errors.New("mapper: input and output lists have different lengths")
	// ErrTooManyWildcards is returned when a pattern contains more
	// than one wildcard character.
	ErrTooManyWildcards = errors.New("mapper: at most one wildcard character is permitted")
)

// globLister abstracts the filesystem lookup so tests can supply a
// fixed file list instead of touching disk.
type globLister func(pattern string) ([]string, error)

// Mapper holds an ordered list of (existing_file, output_template)
// pairs, expanded from caller-supplied patterns.
type Mapper struct {
	inputs        []string
	outputs       []string
	matchedPart   []string
	inputToOutput []int
	glob          globLister
}

// New returns an empty Mapper that resolves wildcard patterns against
// the real filesystem.
func New() *Mapper {
	return &Mapper{glob: func(pattern string) ([]string, error) { return filepath.Glob(pattern) }}
}

// newWithGlob is used by tests to inject a deterministic file list.
func newWithGlob(glob globLister) *Mapper {
	return &Mapper{glob: glob}
}

// InputCount returns the number of existing input files matched so far.
func (m *Mapper) InputCount() int { return len(m.inputs) }

// OutputCount returns the number of distinct (consecutively
// deduplicated) output filenames produced so far.
func (m *Mapper) OutputCount() int { return len(m.outputs) }

// Input returns the i'th matched input filename.
func (m *Mapper) Input(i int) string { return m.inputs[i] }

// Output returns the j'th rendered output filename.
func (m *Mapper) Output(j int) string { return m.outputs[j] }

// MatchedWildcardPart returns the wildcard capture (or "" if the
// pattern had none) for input i.
func (m *Mapper) MatchedWildcardPart(i int) string { return m.matchedPart[i] }

// OutputIndexOf returns the output index that input i maps to.
func (m *Mapper) OutputIndexOf(i int) int { return m.inputToOutput[i] }

// wildcardPositions reports whether pattern contains the wildcard
// character, and errors if it contains more than one.
func wildcardPositions(pattern string) (hasWildcard bool, err error) {
	n := strings.Count(pattern, string(Wildcard))
	if n > 1 {
		return false, ErrTooManyWildcards
	}
	return n == 1, nil
}

// AddPair expands existingPathOrPattern (optionally containing one '#'
// wildcard) against the filesystem, computes the corresponding output
// filename for each match from outputTemplate, and extends the
// mapper's input/output/correspondence tables.
func (m *Mapper) AddPair(existingPathOrPattern, outputTemplate string) error {
	inHasWild, err := wildcardPositions(existingPathOrPattern)
	if err != nil {
		return err
	}
	outHasWild, err := wildcardPositions(outputTemplate)
	if err != nil {
		return err
	}
	if inHasWild != outHasWild {
		return fmt.Errorf("%w: %q vs %q", ErrWildcardMismatch, existingPathOrPattern, outputTemplate)
	}

	var matches []matchedFile
	if !inHasWild {
		files, err := m.glob(existingPathOrPattern)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			// No wildcard: the pattern is itself a literal path.
			// A literal filename is accepted without requiring it
			// to pre-exist at mapping time, since no enumeration
			// is needed.
			matches = []matchedFile{{name: existingPathOrPattern}}
		} else {
			for _, f := range files {
				matches = append(matches, matchedFile{name: f})
			}
		}
	} else {
		matches, err = expandIntegerWildcard(existingPathOrPattern, m.glob)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("%w: %q", ErrNoMatch, existingPathOrPattern)
		}
	}

	lastOutput := ""
	if len(m.outputs) > 0 {
		lastOutput = m.outputs[len(m.outputs)-1]
	}
	for _, mf := range matches {
		m.inputs = append(m.inputs, mf.name)
		m.matchedPart = append(m.matchedPart, mf.capture)
		rendered := outputTemplate
		if outHasWild {
			rendered = strings.Replace(outputTemplate, string(Wildcard), mf.capture, 1)
		}
		if len(m.outputs) == 0 || rendered != lastOutput {
			m.outputs = append(m.outputs, rendered)
			lastOutput = rendered
		}
		m.inputToOutput = append(m.inputToOutput, len(m.outputs)-1)
	}
	return nil
}

// AddPairs calls AddPair for each corresponding element of inputs and
// outputs, which must have equal length.
func (m *Mapper) AddPairs(inputs, outputs []string) error {
	if len(inputs) != len(outputs) {
		return ErrCardinality
	}
	for i := range inputs {
		if err := m.AddPair(inputs[i], outputs[i]); err != nil {
			return err
		}
	}
	return nil
}

type matchedFile struct {
	name    string
	capture string
}

// wildcardRegexp turns a pattern containing exactly one '#' into a
// regexp capturing one or more characters at that position, with
// every other regexp metacharacter in the pattern escaped.
func wildcardRegexp(pattern string) *regexp.Regexp {
	parts := strings.SplitN(pattern, string(Wildcard), 2)
	return regexp.MustCompile("^" + regexp.QuoteMeta(parts[0]) + "(.+)" + regexp.QuoteMeta(parts[1]) + "$")
}

// expandIntegerWildcard globs pattern (with '#' replaced by '*') and
// retains only matches whose captured text decodes as a decimal
// integer in [MinCapture, MaxCapture).
func expandIntegerWildcard(pattern string, glob globLister) ([]matchedFile, error) {
	globPattern := strings.Replace(pattern, string(Wildcard), "*", 1)
	candidates, err := glob(globPattern)
	if err != nil {
		return nil, err
	}
	re := wildcardRegexp(pattern)
	var out []matchedFile
	for _, name := range candidates {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		capture := m[1]
		n, err := strconv.Atoi(capture)
		if err != nil || n < MinCapture || n >= MaxCapture {
			continue
		}
		out = append(out, matchedFile{name: name, capture: capture})
	}
	return out, nil
}
