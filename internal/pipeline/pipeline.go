// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package pipeline implements the pipeline driver: the glue that
// pulls variants from a source chain, populates a variant record,
// evaluates the statistics engine, consults the SNP filter,
// dispatches to the filtered-in or filtered-out sink, and accumulates
// per-sample genotype sums.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/qctool-go/qctool/internal/accum"
	"github.com/qctool-go/qctool/internal/filter"
	"github.com/qctool-go/qctool/internal/genio"
	"github.com/qctool-go/qctool/internal/genotype"
	"github.com/qctool-go/qctool/internal/sampleio"
	"github.com/qctool-go/qctool/internal/stats"
)

// ErrSampleCountMismatch mirrors genio's sentinel for the case where
// a supplied sample table disagrees with the source's sample count.
var ErrSampleCountMismatch = errors.New("pipeline: sample table row count does not match source sample count")

// explainer is implemented by *filter.Tree; the driver logs its
// rejected-leaf explanation at debug level for every filtered-out
// variant, through the configured logger rather than a process-wide
// stream.
type explainer interface {
	Explain() []string
}

// Config bundles everything the driver needs beyond the source/sink
// chains themselves. All fields except Engine are optional.
type Config struct {
	// Engine must already have every statistic the SNPFilter and
	// StatsOut require registered.
	Engine *stats.Engine
	// SNPFilter gates which variants are written to SinkIn vs
	// SinkOut. nil accepts every autosomal variant.
	SNPFilter filter.Condition
	// SampleFilter decides, once per sample before streaming begins,
	// whether that sample's genotype triples are dropped from every
	// variant and from the accumulator. Evaluated against a
	// sampleio.RowEnv built from SampleTable; nil keeps every sample.
	SampleFilter filter.Condition
	// SampleTable is the sample annotation table,
	// required if SampleFilter is non-nil or a sample output is
	// wanted. Its row count must equal the source's sample count.
	SampleTable *sampleio.Table
	// StatsOut receives one header row
	// followed by one row per filtered-in variant, plus one NA row
	// per sex-determining variant.
	StatsOut io.Writer
	// OutputIndexOf maps a source child index to the output index it
	// corresponds to, typically *mapper.Mapper's
	// OutputIndexOf. nil disables correspondence-driven sink
	// advancing (suitable for a single-input, single-output run).
	OutputIndexOf func(inputIndex int) int
	// Logger receives coarse milestone messages. Defaults to
	// logrus.StandardLogger().
	Logger *log.Logger
	// Progress, if set, is called after every variant read with the
	// running count.
	Progress func(variantsRead int)
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.StandardLogger()
}

// Report summarises one Run: counts for every routing decision plus
// the resulting sample tables and accumulator, so a caller can write
// them out or assert against them in tests.
type Report struct {
	VariantsRead        int
	SexDetermining      int
	VariantsFilteredIn  int
	VariantsFilteredOut int
	SamplesFilteredIn   int
	SamplesFilteredOut  int
	Accumulator         *accum.Accumulator
	FilteredInSamples   *sampleio.Table
	FilteredOutSamples  *sampleio.Table
}

// sampleSelection is the precomputed sample-filter result: which
// original sample indices are kept vs dropped, both sorted ascending.
type sampleSelection struct {
	keep []int
	drop []int
}

func selectSamples(cfg Config, n int) (sampleSelection, error) {
	if cfg.SampleFilter == nil || cfg.SampleTable == nil {
		keep := make([]int, n)
		for i := range keep {
			keep[i] = i
		}
		return sampleSelection{keep: keep}, nil
	}
	if len(cfg.SampleTable.Rows) != n {
		return sampleSelection{}, fmt.Errorf("%w: table has %d rows, source has %d samples", ErrSampleCountMismatch, len(cfg.SampleTable.Rows), n)
	}
	var sel sampleSelection
	for i, row := range cfg.SampleTable.Rows {
		env := sampleio.NewRowEnv(cfg.SampleTable.Schema, row)
		ok, err := cfg.SampleFilter.Satisfied(env)
		if err != nil {
			return sampleSelection{}, fmt.Errorf("pipeline: evaluating sample filter for row %d: %w", i, err)
		}
		if ok {
			sel.keep = append(sel.keep, i)
		} else {
			sel.drop = append(sel.drop, i)
		}
	}
	return sel, nil
}

// writeUnchanged writes v (with its current, unreduced sample set) to
// sink verbatim. Sex-determining variants take this path.
func writeUnchanged(sink genio.Sink, v *genotype.Variant) error {
	triples := v.Triples()
	return sink.WriteNext(v.Identification, len(triples),
		func(i int) float64 { return triples[i].AA },
		func(i int) float64 { return triples[i].AB },
		func(i int) float64 { return triples[i].BB },
	)
}

// writeNAStatsRow writes a stats row whose identification columns (if
// registered) reflect v and whose remaining columns are "NA"; no
// numeric statistic is meaningful for a variant the engine never
// processed.
func writeNAStatsRow(w io.Writer, e *stats.Engine, v *genotype.Variant, row int) error {
	cols := make([]string, 0, len(e.Names()))
	for _, name := range e.Names() {
		switch name {
		case "SNPID":
			cols = append(cols, v.SNPID)
		case "RSID":
			cols = append(cols, v.RSID)
		case "chromosome":
			cols = append(cols, v.Chromosome.String())
		case "position":
			cols = append(cols, fmt.Sprintf("%d", v.Position))
		default:
			cols = append(cols, "NA")
		}
	}
	_, err := fmt.Fprintf(w, "%d", row)
	if err != nil {
		return err
	}
	for _, c := range cols {
		if _, err := fmt.Fprintf(w, "\t%s", c); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// Run drives one end-to-end pass: pull every variant from source,
// populate the statistics engine, consult cfg.SNPFilter, dispatch to
// sinkIn/sinkOut, and accumulate per-sample sums. It does not close
// source or the sinks; the caller owns their lifetimes.
func Run(cfg Config, source *genio.ChainSource, sinkIn *genio.ChainSink, sinkOut genio.Sink) (*Report, error) {
	logger := cfg.logger()
	n := source.SampleCount()

	sel, err := selectSamples(cfg, n)
	if err != nil {
		return nil, err
	}

	acc := accum.New(len(sel.keep))
	report := &Report{Accumulator: acc}

	snpFilter := cfg.SNPFilter
	if snpFilter == nil {
		snpFilter = filter.Trivial()
	}

	if cfg.StatsOut != nil {
		if err := cfg.Engine.FormatHeader(cfg.StatsOut); err != nil {
			return nil, fmt.Errorf("pipeline: writing stats header: %w", err)
		}
	}

	v := genotype.New(n)
	statsRow := 0
	for {
		ok, crossed, err := source.ReadNext(v)
		if err != nil {
			return nil, fmt.Errorf("pipeline: reading variant: %w", err)
		}
		if !ok {
			break
		}
		report.VariantsRead++
		if cfg.Progress != nil {
			cfg.Progress(report.VariantsRead)
		}

		if crossed && cfg.OutputIndexOf != nil && sinkIn != nil {
			target := cfg.OutputIndexOf(source.CurrentChildIndex())
			for sinkIn.CurrentChild() < target {
				sinkIn.Advance()
			}
		}

		if !v.Chromosome.IsAutosomal() {
			report.SexDetermining++
			if sinkIn != nil {
				if err := writeUnchanged(sinkIn, v); err != nil {
					return nil, fmt.Errorf("pipeline: writing sex-determining variant: %w", err)
				}
			}
			if cfg.StatsOut != nil {
				statsRow++
				if err := writeNAStatsRow(cfg.StatsOut, cfg.Engine, v, statsRow); err != nil {
					return nil, fmt.Errorf("pipeline: writing NA stats row: %w", err)
				}
			}
			continue
		}

		if len(sel.drop) > 0 {
			v.FilterOutSamplesByIndex(sel.drop)
		}
		cfg.Engine.Process(v)

		keepVariant, err := snpFilter.Satisfied(cfg.Engine)
		if err != nil {
			return nil, fmt.Errorf("pipeline: evaluating SNP filter: %w", err)
		}
		if keepVariant {
			report.VariantsFilteredIn++
			if sinkIn != nil {
				if err := writeUnchanged(sinkIn, v); err != nil {
					return nil, fmt.Errorf("pipeline: writing filtered-in variant: %w", err)
				}
			}
			if cfg.StatsOut != nil {
				statsRow++
				if err := cfg.Engine.FormatValues(cfg.StatsOut, statsRow); err != nil {
					return nil, fmt.Errorf("pipeline: writing stats row: %w", err)
				}
			}
			acc.Add(v.Triples())
		} else {
			report.VariantsFilteredOut++
			if ex, ok := snpFilter.(explainer); ok {
				logger.Debugf("variant %s rejected by: %v", v.SNPID, ex.Explain())
			}
			if sinkOut != nil {
				if err := writeUnchanged(sinkOut, v); err != nil {
					return nil, fmt.Errorf("pipeline: writing filtered-out variant: %w", err)
				}
			}
		}
	}

	if err := buildSampleReport(cfg, sel, acc, report); err != nil {
		return nil, err
	}

	logger.Infof("pipeline: %d variants read, %d filtered in, %d filtered out, %d sex-determining",
		report.VariantsRead, report.VariantsFilteredIn, report.VariantsFilteredOut, report.SexDetermining)
	return report, nil
}

// buildSampleReport is the post-loop pass: per-sample statistics
// derived from the accumulator, appended to the surviving sample rows,
// then split into filtered-in/filtered-out sample tables along the
// same boundary selectSamples already decided.
func buildSampleReport(cfg Config, sel sampleSelection, acc *accum.Accumulator, report *Report) error {
	report.SamplesFilteredIn = len(sel.keep)
	report.SamplesFilteredOut = len(sel.drop)
	if cfg.SampleTable == nil {
		return nil
	}

	keepTable := cfg.SampleTable.Select(sel.keep)
	missingCol := make([]string, len(sel.keep))
	hetCol := make([]string, len(sel.keep))
	for i := range sel.keep {
		missingCol[i] = fmt.Sprintf("%.5g", acc.Missing(i))
		hetCol[i] = fmt.Sprintf("%.5g", acc.Heterozygosity(i))
	}
	if err := keepTable.AppendColumn("missing_rate", sampleio.ColContinuous, missingCol); err != nil {
		return fmt.Errorf("pipeline: appending sample missing_rate column: %w", err)
	}
	if err := keepTable.AppendColumn("heterozygosity", sampleio.ColContinuous, hetCol); err != nil {
		return fmt.Errorf("pipeline: appending sample heterozygosity column: %w", err)
	}
	report.FilteredInSamples = keepTable
	report.FilteredOutSamples = cfg.SampleTable.Select(sel.drop)
	return nil
}
