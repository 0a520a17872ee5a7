// Command sibelia-blocks finds synteny blocks shared across one or more
// input genomes: build the de Bruijn graph, simplify it by collapsing
// bulges across a coarse-to-fine schedule of k-mer sizes, and emit the
// resulting blocks as a space-aligned text table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/log"

	sibelia "github.com/brittanymareeott/Sibelia"
	"github.com/brittanymareeott/Sibelia/internal/recordsource"
)

var (
	preset            = flag.String("preset", "", "named stage schedule: loose, fine, or far (overrides -config)")
	stageFile         = flag.String("stagefile", "", "explicit stage file: one \"k minBranchSize\" pair per line (mutually exclusive with -preset)")
	configPath        = flag.String("config", "", "path to a TOML engine config file")
	saveConfig        = flag.String("save-config", "", "write the effective engine config to this path and continue")
	minBlockSize      = flag.Int("min-block-size", 0, "override: minimum block size in bases (0 = use preset/config)")
	maxBranchSize     = flag.Int("max-branch-size", 0, "override: bulge-removal traversal bound applied to every stage (0 = use preset/config)")
	maxDifferenceSize = flag.Int("max-difference-size", -1, "override: max length difference tolerated within a bulge (-1 = use preset/config)")
	maxIterations     = flag.Int("max-iterations", 0, "override: max bulge-removal rounds per stage (0 = use preset/config)")
	sharedOnly        = flag.Bool("sharedonly", false, "emit only blocks present on every input record")
	spillDir          = flag.String("spill-dir", "", "if set, spill assembled blocks through a memory-mapped scratch file under this directory")
	outPath           = flag.String("o", "", "output path for the block table (default: stdout)")
	verbose           = flag.Bool("v", false, "enable debug logging")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	logger := sibeliaLogger(*verbose)

	cfg, err := resolveConfig()
	if err != nil {
		logger.Fatal("resolving engine config", "err", err)
	}
	applyOverrides(&cfg)

	if *saveConfig != "" {
		if err := cfg.Write(*saveConfig); err != nil {
			logger.Fatal("saving engine config", "err", err)
		}
	}

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "sibelia-blocks: at least one FASTA file is required")
		flag.Usage()
		os.Exit(2)
	}

	records, err := recordsource.ReadFiles(paths)
	if err != nil {
		logger.Fatal("reading input", "err", err)
	}

	opts := []sibelia.EngineOption{
		sibelia.WithLogger(logger),
		sibelia.WithProgress(progressLogger(logger)),
	}
	if *spillDir != "" {
		spill, err := sibelia.NewSpillStore(*spillDir)
		if err != nil {
			logger.Fatal("creating spill store", "err", err)
		}
		defer spill.Close()
		opts = append(opts, sibelia.WithSpillStore(spill))
	}

	engine, err := sibelia.NewEngine(records, cfg, opts...)
	if err != nil {
		logger.Fatal("building engine", "err", err)
	}

	result, err := engine.Run(context.Background())
	if err != nil {
		logger.Fatal("running engine", "err", err)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Fatal("creating output file", "err", err)
		}
		defer f.Close()
		out = f
	}
	writeBlocks(out, result)
}

func resolveConfig() (sibelia.EngineConfig, error) {
	if *preset != "" && *stageFile != "" {
		return sibelia.EngineConfig{}, fmt.Errorf("-preset and -stagefile are mutually exclusive")
	}
	cfg := sibelia.DefaultEngineConfig()
	switch {
	case *preset != "":
		named, ok := sibelia.Preset(*preset)
		if !ok {
			return sibelia.EngineConfig{}, fmt.Errorf("unknown preset %q (want loose, fine, or far)", *preset)
		}
		cfg = named
	case *configPath != "":
		loaded, err := sibelia.LoadEngineConfig(*configPath)
		if err != nil {
			return sibelia.EngineConfig{}, err
		}
		cfg = loaded
	}
	if *stageFile != "" {
		stages, err := sibelia.LoadStageList(*stageFile)
		if err != nil {
			return sibelia.EngineConfig{}, err
		}
		cfg.Stages = stages
	}
	return cfg, nil
}

func applyOverrides(cfg *sibelia.EngineConfig) {
	if *minBlockSize > 0 {
		cfg.MinBlockSize = *minBlockSize
	}
	if *maxBranchSize > 0 {
		for i := range cfg.Stages {
			cfg.Stages[i].MinBranchSize = *maxBranchSize
		}
	}
	if *maxDifferenceSize >= 0 {
		cfg.MaxDifferenceSize = *maxDifferenceSize
	}
	if *maxIterations > 0 {
		cfg.MaxIterations = *maxIterations
	}
	if *sharedOnly {
		cfg.SharedOnly = true
	}
}

func sibeliaLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func progressLogger(logger *log.Logger) sibelia.ProgressCallback {
	return func(percent int, state sibelia.ProgressState) {
		switch state {
		case sibelia.ProgressStart:
			logger.Debug("run started")
		case sibelia.ProgressEnd:
			logger.Debug("run finished")
		default:
			logger.Debug("progress", "percent", percent)
		}
	}
}

func writeBlocks(w *os.File, result *sibelia.Result) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "stage_k\tblock\tchromosome\tstrand\tstart\tend\tlength")
	for _, stage := range result.Stages {
		for _, inst := range stage.Blocks {
			strand := "+"
			if inst.Strand < 0 {
				strand = "-"
			}
			fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%d\t%d\t%d\n",
				stage.K, inst.SignedBlock(), inst.Chromosome, strand, inst.Start, inst.End, inst.Length)
		}
	}
	tw.Flush()
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] fasta-file [fasta-file ...]\n\n", os.Args[0])
	flag.PrintDefaults()
}
