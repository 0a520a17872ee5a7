package sibelia

import (
	"context"

	"github.com/charmbracelet/log"
)

// ProgressState tags a progress report: the run is beginning, underway,
// or finished.
type ProgressState int

const (
	ProgressStart ProgressState = iota
	ProgressRun
	ProgressEnd
)

// ProgressCallback reports engine progress as a rough percentage. It is
// engine-scoped, never a package-level hook, so two Engines can run
// concurrently with independent observers. Percent values may repeat or
// regress when a stage re-walks the sequence; observers must tolerate
// non-monotone input.
type ProgressCallback func(percent int, state ProgressState)

// StageResult holds the blocks assembled at one stage of the schedule,
// for schedules with more than one block-generating stage.
type StageResult struct {
	K      int
	Blocks []BlockInstance
}

// Stats summarizes one Engine.Run invocation.
type Stats struct {
	Stages       int
	VertexCounts []int
	Collapses    []int
}

// Result is the output of one Engine.Run invocation.
type Result struct {
	Stages []StageResult
	Stats  Stats
}

// Engine ties the sequence store (C1), bifurcation index (C2), graph
// construction (C3), bulge-removal simplification (C4), edge
// enumeration (C5), and block assembly (C6) together into the staged
// coarse-to-fine pipeline described by an EngineConfig.
type Engine struct {
	store     *Store
	cfg       EngineConfig
	reference map[int32]bool
	logger    *log.Logger
	progress  ProgressCallback
	spill     *SpillStore
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithLogger attaches a logger; the default writes warnings and errors
// to os.Stderr.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithProgress attaches a progress callback.
func WithProgress(cb ProgressCallback) EngineOption {
	return func(e *Engine) { e.progress = cb }
}

// WithSpillStore attaches a SpillStore through which each
// block-generating stage's instances are written and read back before
// being added to the Result; every stage's blocks still end up held in
// memory in the Result. The caller owns its lifetime.
func WithSpillStore(s *SpillStore) EngineOption {
	return func(e *Engine) { e.spill = s }
}

// NewEngine validates records and config and builds an Engine ready to
// Run.
func NewEngine(records []SequenceRecord, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if err := validateRecords(records); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	reference := make(map[int32]bool)
	for i, r := range records {
		if r.Reference {
			reference[int32(i)] = true
		}
	}
	e := &Engine{
		store:     NewStore(records),
		cfg:       cfg,
		reference: reference,
		logger:    newLogger(nil, log.WarnLevel),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the staged simplification pipeline: for each stage it
// rebuilds the bifurcation index at that stage's k, runs bulge-removal
// simplification to convergence (or MaxIterations, whichever comes
// first), and, for stages marked GenerateBlocks, enumerates edges and
// assembles them into synteny blocks. Assembly drops groups shorter
// than the configured MinBlockSize and trims the rest no further than
// the stage's trim floor: the running minimum of k across stages seen
// so far capped by MinBlockSize, with the final stage using its own k
// instead, mirroring the progressively tightening trim the
// coarse-to-fine schedule is designed to produce.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	stats := Stats{Stages: len(e.cfg.Stages)}

	e.reportProgress(0, ProgressStart)
	for i, stage := range e.cfg.Stages {
		if err := ctx.Err(); err != nil {
			return nil, wrapError(KindIoError, err, "engine run canceled at stage %d", i)
		}

		idx := Construct(e.store, stage.K)
		stats.VertexCounts = append(stats.VertexCounts, idx.VertexCount())
		e.reportProgress(stagePercent(i, 1, len(e.cfg.Stages)), ProgressRun)

		simplifier := NewGraphSimplifier(e.store, idx, stage.K, stage.MinBranchSize, e.cfg.MaxDifferenceSize)
		collapses := simplifier.SimplifyGraph(e.cfg.MaxIterations)
		stats.Collapses = append(stats.Collapses, collapses)
		e.logger.Debug("stage simplified", "stage", i, "k", stage.K, "bulges_collapsed", collapses, "vertices", idx.VertexCount())
		e.reportProgress(stagePercent(i, 2, len(e.cfg.Stages)), ProgressRun)

		if !stage.GenerateBlocks {
			e.reportProgress(stagePercent(i, 3, len(e.cfg.Stages)), ProgressRun)
			continue
		}

		trimFloor := trimK(e.cfg.Stages, i, e.cfg.MinBlockSize)
		if i == len(e.cfg.Stages)-1 {
			trimFloor = lastK(e.cfg.Stages, e.cfg.MinBlockSize)
		}

		edges := ListEdges(e.store, idx, stage.K)
		blocks := AssembleBlocks(edges, AssemblyOptions{
			K:            stage.K,
			MinBlockSize: e.cfg.MinBlockSize,
			TrimK:        trimFloor,
			SharedOnly:   e.cfg.SharedOnly,
			Chromosomes:  e.store.NumChromosomes(),
			Reference:    e.reference,
		})
		e.logger.Info("stage assembled blocks", "stage", i, "k", stage.K, "blocks", countDistinctBlocks(blocks), "instances", len(blocks))
		e.reportProgress(stagePercent(i, 3, len(e.cfg.Stages)), ProgressRun)

		if e.spill != nil {
			if err := e.spill.WriteBlockInstances(blocks); err != nil {
				return nil, err
			}
			spilled, err := e.spill.ReadBlockInstances()
			if err != nil {
				return nil, err
			}
			blocks = spilled
		}

		result.Stages = append(result.Stages, StageResult{K: stage.K, Blocks: blocks})
	}
	e.reportProgress(100, ProgressEnd)

	result.Stats = stats
	return result, nil
}

// stagePercent spreads a stage's three phases (construct, simplify,
// assemble) evenly across its slice of the whole run.
func stagePercent(stageIndex, phase, stageCount int) int {
	return (stageIndex*3 + phase) * 100 / (stageCount * 3)
}

func (e *Engine) reportProgress(percent int, state ProgressState) {
	if e.progress != nil {
		e.progress(percent, state)
	}
}

func countDistinctBlocks(instances []BlockInstance) int {
	seen := make(map[BlockID]bool, len(instances))
	for _, inst := range instances {
		seen[inst.Block] = true
	}
	return len(seen)
}
