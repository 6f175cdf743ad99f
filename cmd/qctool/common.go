// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package main is the qctool CLI: one binary whose qc/stats/filter
// subcommands all parameterise the same pipeline driver instead of
// shipping a separate near-identical main per operation.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/qctool-go/qctool/internal/filter"
	"github.com/qctool-go/qctool/internal/genfmt"
	"github.com/qctool-go/qctool/internal/genio"
	"github.com/qctool-go/qctool/internal/identlist"
	"github.com/qctool-go/qctool/internal/mapper"
	"github.com/qctool-go/qctool/internal/pipeline"
	"github.com/qctool-go/qctool/internal/sampleio"
	"github.com/qctool-go/qctool/internal/stats"
	log "github.com/sirupsen/logrus"
)

// errUsage is returned by setup helpers for a fatal configuration
// problem the caller should already have reported to stderr.
var errUsage = errors.New("qctool: usage error")

// pipelineFlags holds every flag shared by the qc/stats/filter
// subcommands. Exactly which of these register depends on withStats
// and withRewrite, since "stats" has no rewrite output and "filter"
// has no stats-file output.
type pipelineFlags struct {
	samples int

	inputs  stringList
	outputs stringList
	exclGen string

	sampleIn      string
	sampleOutIn   string
	sampleOutExcl string

	statsFile string

	inclRange       stringList
	inclGT          stringList
	inclLT          stringList
	inclList        stringList
	exclList        stringList
	sampleInclRange stringList

	force bool
}

func (f *pipelineFlags) register(flags *flag.FlagSet, withStats, withRewrite bool) {
	flags.IntVar(&f.samples, "samples", -1, "number of samples `N` in every input file")
	flags.Var(&f.inputs, "g", "input GEN `file` (repeatable; may contain one '#' wildcard)")
	flags.StringVar(&f.sampleIn, "s", "", "input sample `file`")
	flags.Var(&f.inclRange, "incl-range", "`NAME,LO,HI` keep SNPs whose statistic NAME lies in [LO,HI]")
	flags.Var(&f.inclGT, "incl-gt", "`NAME,LOWER` keep SNPs whose statistic NAME is greater than LOWER")
	flags.Var(&f.inclLT, "incl-lt", "`NAME,UPPER` keep SNPs whose statistic NAME is less than UPPER")
	flags.Var(&f.inclList, "incl-list", "identifier-list `file`: keep only listed SNPs (repeatable)")
	flags.Var(&f.exclList, "excl-list", "identifier-list `file`: drop listed SNPs (repeatable)")
	flags.Var(&f.sampleInclRange, "sample-incl-range", "`NAME,LO,HI` keep samples whose annotation column NAME lies in [LO,HI]")
	flags.BoolVar(&f.force, "force", false, "proceed despite setup warnings")
	flags.StringVar(&f.sampleOutIn, "os", "", "output sample `file` for kept samples")
	flags.StringVar(&f.sampleOutExcl, "excl-s", "", "output sample `file` for dropped samples")
	if withRewrite {
		flags.Var(&f.outputs, "og", "output GEN `file` template, one per -g (repeatable)")
		flags.StringVar(&f.exclGen, "excl-g", "", "output GEN `file` receiving SNPs filtered out")
	}
	if withStats {
		flags.StringVar(&f.statsFile, "stats-file", "", "output per-SNP statistics `file`")
	}
}

// splitFields splits a comma-separated flag value into exactly want
// pieces, or fails with errUsage.
func splitFields(raw string, want int) ([]string, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("%w: %q: want %d comma-separated fields, got %d", errUsage, raw, want, len(parts))
	}
	return parts, nil
}

func parseRangeSpec(raw string) (name string, lo, hi float64, err error) {
	parts, err := splitFields(raw, 3)
	if err != nil {
		return "", 0, 0, err
	}
	lo, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %q: bad lower bound: %v", errUsage, raw, err)
	}
	hi, err = strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %q: bad upper bound: %v", errUsage, raw, err)
	}
	return parts[0], lo, hi, nil
}

func parseBoundSpec(raw string) (name string, bound float64, err error) {
	parts, err := splitFields(raw, 2)
	if err != nil {
		return "", 0, err
	}
	bound, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: bad bound: %v", errUsage, raw, err)
	}
	return parts[0], bound, nil
}

// buildFilterTree composes every -incl-range/-incl-gt/-incl-lt/-incl-list/
// -excl-list leaf into one AND'd, Counted filter.Tree. A
// flagset with no such flags returns nil, meaning "accept everything".
func buildFilterTree(ranges, gts, lts, inclLists, exclLists []string) (*filter.Tree, error) {
	var leaves []*filter.CountedCondition
	var subs []filter.Condition

	add := func(cond filter.Condition) {
		cc := filter.Counted(cond)
		leaves = append(leaves, cc)
		subs = append(subs, cc)
	}

	for _, raw := range ranges {
		name, lo, hi, err := parseRangeSpec(raw)
		if err != nil {
			return nil, err
		}
		add(filter.InRange(name, lo, hi, 0, true))
	}
	for _, raw := range gts {
		name, bound, err := parseBoundSpec(raw)
		if err != nil {
			return nil, err
		}
		add(filter.GreaterThan(name, bound, 0))
	}
	for _, raw := range lts {
		name, bound, err := parseBoundSpec(raw)
		if err != nil {
			return nil, err
		}
		add(filter.LessThan(name, bound, 0))
	}
	for _, path := range inclLists {
		list, err := identlist.Load(path)
		if err != nil {
			return nil, err
		}
		log.Infof("loaded %d identifiers from %s (blake2b %x)", list.Len(), path, list.Hash())
		add(filter.InIdentifierList(list))
	}
	for _, path := range exclLists {
		list, err := identlist.Load(path)
		if err != nil {
			return nil, err
		}
		log.Infof("loaded %d identifiers from %s (blake2b %x)", list.Len(), path, list.Hash())
		add(filter.NewNot(filter.InIdentifierList(list)))
	}

	if len(subs) == 0 {
		return nil, nil
	}
	return filter.NewTree(filter.NewAnd(subs...), leaves...), nil
}

// buildSampleFilterTree is buildFilterTree's sample-row counterpart:
// only range predicates make sense against a sample annotation table
// (no SNP identification fields to match against), so it only consults
// sampleInclRange.
func buildSampleFilterTree(ranges []string) (*filter.Tree, error) {
	var leaves []*filter.CountedCondition
	var subs []filter.Condition
	for _, raw := range ranges {
		name, lo, hi, err := parseRangeSpec(raw)
		if err != nil {
			return nil, err
		}
		cc := filter.Counted(filter.InRange(name, lo, hi, 0, true))
		leaves = append(leaves, cc)
		subs = append(subs, cc)
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return filter.NewTree(filter.NewAnd(subs...), leaves...), nil
}

// openSources builds a mapper from f.inputs (paired 1:1 with
// f.outputs when rewriting, or each paired with itself otherwise) and
// the resulting chain source. The mapper is returned in both cases;
// callers consult it for sink correspondence only when rewriting.
func openSources(f *pipelineFlags, withRewrite bool) (*genio.ChainSource, *mapper.Mapper, error) {
	if f.samples < 0 {
		return nil, nil, fmt.Errorf("%w: -samples is required", errUsage)
	}
	if len(f.inputs) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one -g is required", errUsage)
	}

	m := mapper.New()
	if withRewrite {
		if len(f.outputs) != len(f.inputs) {
			return nil, nil, fmt.Errorf("%w: got %d -g but %d -og, want equal counts", errUsage, len(f.inputs), len(f.outputs))
		}
		if err := m.AddPairs(f.inputs, f.outputs); err != nil {
			return nil, nil, err
		}
	} else {
		for _, in := range f.inputs {
			if err := m.AddPair(in, in); err != nil {
				return nil, nil, err
			}
		}
	}

	sources := make([]genio.Source, m.InputCount())
	for i := range sources {
		src, err := genfmt.Open(m.Input(i), f.samples)
		if err != nil {
			return nil, nil, err
		}
		sources[i] = src
	}
	source, err := genio.NewChainSource(sources...)
	if err != nil {
		return nil, nil, err
	}
	return source, m, nil
}

// openRewriteSink builds the filtered-in ChainSink from m's distinct
// output filenames, or nil if rewriting was not requested.
func openRewriteSink(m *mapper.Mapper, withRewrite bool) (*genio.ChainSink, error) {
	if !withRewrite || m == nil || m.OutputCount() == 0 {
		return nil, nil
	}
	sink := genio.NewChainSink()
	for j := 0; j < m.OutputCount(); j++ {
		s, err := genfmt.Create(m.Output(j))
		if err != nil {
			return nil, err
		}
		sink.AddSink(s)
	}
	return sink, nil
}

// openExclusionSink opens f.exclGen as a single (non-chained) sink for
// filtered-out variants, or nil if not configured.
func openExclusionSink(path string) (genio.Sink, error) {
	if path == "" {
		return nil, nil
	}
	return genfmt.Create(path)
}

// loadSampleTable opens f.sampleIn if set, or returns nil.
func loadSampleTable(path string) (*sampleio.Table, error) {
	if path == "" {
		return nil, nil
	}
	return sampleio.ReadFile(path)
}

// writeSampleTables writes the kept/dropped sample tables computed by
// the pipeline to their configured output paths, if any were given.
func writeSampleTables(report *pipeline.Report, keepPath, dropPath string) error {
	if keepPath != "" && report.FilteredInSamples != nil {
		if err := report.FilteredInSamples.WriteFile(keepPath); err != nil {
			return err
		}
	}
	if dropPath != "" && report.FilteredOutSamples != nil {
		if err := report.FilteredOutSamples.WriteFile(dropPath); err != nil {
			return err
		}
	}
	return nil
}

// runPipeline is the shared body behind qc/stats/filter: parse flags,
// open sources/sinks, run the driver, write outputs, and translate
// errors into exit codes.
func runPipeline(name string, withStats, withRewrite bool) func(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return func(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
		var f pipelineFlags
		flags := flag.NewFlagSet(name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		f.register(flags, withStats, withRewrite)
		if err := flags.Parse(args); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		if withStats && f.statsFile == "" && withRewrite {
			log.Warn("no -stats-file given: per-SNP statistics will not be written")
		}
		if !withRewrite && len(f.exclList)+len(f.inclList)+len(f.inclRange)+len(f.inclGT)+len(f.inclLT) == 0 && !f.force {
			log.Warn("no filter criteria given: every SNP will be kept (pass -force to silence this warning)")
		}

		source, m, err := openSources(&f, withRewrite)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return 1
		}
		defer source.Close()

		sinkIn, err := openRewriteSink(m, withRewrite)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return 1
		}
		if sinkIn != nil {
			defer sinkIn.Close()
		}

		sinkOut, err := openExclusionSink(f.exclGen)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return 1
		}
		if sinkOut != nil {
			defer sinkOut.Close()
		}

		sampleTable, err := loadSampleTable(f.sampleIn)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return 1
		}

		snpFilter, err := buildFilterTree(f.inclRange, f.inclGT, f.inclLT, f.inclList, f.exclList)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return 2
		}
		sampleFilter, err := buildSampleFilterTree(f.sampleInclRange)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return 2
		}

		var statsOut *os.File
		if withStats && f.statsFile != "" {
			statsOut, err = os.Create(f.statsFile)
			if err != nil {
				fmt.Fprintf(stderr, "%s: %v\n", prog, err)
				return 1
			}
			defer statsOut.Close()
		}

		engine := stats.NewEngine()
		if err := stats.RegisterDefaults(engine); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return 1
		}

		cfg := pipeline.Config{
			Engine:        engine,
			SampleTable:   sampleTable,
			OutputIndexOf: mapperOutputIndexOf(m, withRewrite),
		}
		if snpFilter != nil {
			cfg.SNPFilter = snpFilter
		}
		if sampleFilter != nil {
			cfg.SampleFilter = sampleFilter
		}
		if statsOut != nil {
			cfg.StatsOut = statsOut
		}

		report, err := pipeline.Run(cfg, source, sinkIn, sinkOut)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return 1
		}

		if err := writeSampleTables(report, f.sampleOutIn, f.sampleOutExcl); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return 1
		}

		fmt.Fprintf(stdout, "variants read %d, filtered in %d, filtered out %d, sex-determining %d\n",
			report.VariantsRead, report.VariantsFilteredIn, report.VariantsFilteredOut, report.SexDetermining)
		return 0
	}
}

// mapperOutputIndexOf adapts m.OutputIndexOf to the pipeline's
// correspondence callback shape, or nil when no rewrite mapper exists.
func mapperOutputIndexOf(m *mapper.Mapper, withRewrite bool) func(int) int {
	if !withRewrite || m == nil {
		return nil
	}
	return m.OutputIndexOf
}
