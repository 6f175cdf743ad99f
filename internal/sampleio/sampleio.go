// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package sampleio implements the sample-annotation file format and
// the sample-row filter environment: a whitespace-separated table
// whose first line is column headings, whose second line is a
// type-tag row, and whose remaining lines are one row per sample.
package sampleio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/qctool-go/qctool/internal/filter"
)

// ColumnType is one of the type tags a sample file's second line may
// carry.
type ColumnType byte

// The four recognised column types.
const (
	ColID         ColumnType = '0' // id/null: id_1, id_2, missing
	ColDiscrete   ColumnType = '1' // discrete covariate
	ColContinuous ColumnType = '3' // continuous covariate
	ColPhenotype  ColumnType = 'P' // phenotype
)

// Mandatory column names, in their required positions.
const (
	ColumnID1     = "id_1"
	ColumnID2     = "id_2"
	ColumnMissing = "missing"
)

// Errors raised while reading or writing a sample file.
var (
	ErrMandatoryColumns = errors.New("sampleio: first three columns must be id_1, id_2, missing")
	ErrColumnCount      = errors.New("sampleio: header/type/data row have mismatched column counts")
	ErrBadColumnType    = errors.New("sampleio: unrecognised column type tag")
	ErrUnknownColumn    = errors.New("sampleio: unknown column")
)

// Schema describes a sample table's columns: parallel Names/Types
// slices, positionally aligned.
type Schema struct {
	Names []string
	Types []ColumnType
}

// IndexOf returns the column index of name, or -1.
func (s Schema) IndexOf(name string) int {
	for i, n := range s.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Row is one sample's annotation row, positionally aligned with a
// Schema. Values are kept as their original text tokens; numeric
// interpretation happens on demand via RowEnv.
type Row struct {
	Values []string
}

// Table holds a Schema plus every row read from (or to be written to)
// a sample annotation file, in original order.
type Table struct {
	Schema Schema
	Rows   []Row
}

// parseColumnType maps a single type-tag character onto ColumnType,
// rejecting anything outside the four recognised tags above.
func parseColumnType(c byte) (ColumnType, error) {
	switch ColumnType(c) {
	case ColID, ColDiscrete, ColContinuous, ColPhenotype:
		return ColumnType(c), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadColumnType, string(c))
	}
}

// ReadFile reads a whitespace-separated sample annotation file from
// path: header line, type-tag line, then one row per sample. The
// first three columns must be id_1, id_2, missing.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses a sample annotation stream (the body of ReadFile,
// factored out so tests and in-memory callers need not touch disk).
func Read(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("sampleio: empty sample file")
	}
	names := strings.Fields(scanner.Text())
	if len(names) < 3 || names[0] != ColumnID1 || names[1] != ColumnID2 || names[2] != ColumnMissing {
		return nil, ErrMandatoryColumns
	}

	if !scanner.Scan() {
		return nil, fmt.Errorf("sampleio: missing column-type row")
	}
	typeFields := strings.Fields(scanner.Text())
	if len(typeFields) != len(names) {
		return nil, fmt.Errorf("%w: %d headings vs %d type tags", ErrColumnCount, len(names), len(typeFields))
	}
	types := make([]ColumnType, len(typeFields))
	for i, tf := range typeFields {
		if len(tf) != 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadColumnType, tf)
		}
		t, err := parseColumnType(tf[0])
		if err != nil {
			return nil, err
		}
		types[i] = t
	}

	table := &Table{Schema: Schema{Names: names, Types: types}}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(names) {
			return nil, fmt.Errorf("%w: row has %d fields, want %d", ErrColumnCount, len(fields), len(names))
		}
		table.Rows = append(table.Rows, Row{Values: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// WriteFile writes t to path in the sample annotation format.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.Write(f)
}

// Write serialises t's header, type-tag row, and data rows.
func (t *Table) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(t.Schema.Names, " ") + "\n"); err != nil {
		return err
	}
	typeStrs := make([]string, len(t.Schema.Types))
	for i, ty := range t.Schema.Types {
		typeStrs[i] = string(rune(ty))
	}
	if _, err := bw.WriteString(strings.Join(typeStrs, " ") + "\n"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := bw.WriteString(strings.Join(row.Values, " ") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// AppendColumn extends the schema and every row with one more column,
// the way the pipeline adds "missing_rate" and "heterozygosity" to a
// written-back sample file. values must have one
// entry per existing row, in row order.
func (t *Table) AppendColumn(name string, colType ColumnType, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("%w: %d values for %d rows", ErrColumnCount, len(values), len(t.Rows))
	}
	t.Schema.Names = append(t.Schema.Names, name)
	t.Schema.Types = append(t.Schema.Types, colType)
	for i := range t.Rows {
		t.Rows[i].Values = append(t.Rows[i].Values, values[i])
	}
	return nil
}

// Select returns a new Table containing only the rows at the given
// indices, in the order given, preserving the schema.
func (t *Table) Select(indices []int) *Table {
	out := &Table{Schema: t.Schema, Rows: make([]Row, len(indices))}
	for i, idx := range indices {
		out.Rows[i] = t.Rows[idx]
	}
	return out
}

// RowEnv adapts one Row (plus its Schema) to filter.Env, so a sample
// filter tree built from the same leaf constructors as a SNP filter
// (InRange/GreaterThan/LessThan/And/Or/Not/Trivial) can be evaluated
// against sample annotation columns by name.
// InIdentifierList and SNPIDMatches are not supported against a
// RowEnv; they report an error if a sample filter tree uses them.
type RowEnv struct {
	schema Schema
	row    Row
}

// NewRowEnv wraps row (and the schema it belongs to) as a filter.Env.
func NewRowEnv(schema Schema, row Row) RowEnv {
	return RowEnv{schema: schema, row: row}
}

var _ filter.Env = RowEnv{}

// ValueAsString implements filter.Env.
func (e RowEnv) ValueAsString(name string) (string, error) {
	i := e.schema.IndexOf(name)
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return e.row.Values[i], nil
}

// ValueAsDouble implements filter.Env.
func (e RowEnv) ValueAsDouble(name string) (float64, error) {
	s, err := e.ValueAsString(name)
	if err != nil {
		return 0, err
	}
	if s == "NA" || s == "" {
		return 0, fmt.Errorf("sampleio: column %q is missing for this sample", name)
	}
	return strconv.ParseFloat(s, 64)
}
