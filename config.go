package sibelia

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Stage describes one pass of graph simplification: the k-mer size to
// rebuild the graph at, the bulge-removal traversal bound at that k,
// and whether synteny blocks should be emitted once the pass's
// simplification settles, mirroring the staged coarse-to-fine k
// schedule the original tool runs per named preset.
type Stage struct {
	K int `toml:"k"`
	// MinBranchSize bounds how far bulge removal follows a branch at
	// this stage; zero disables bulge collapse for the stage entirely.
	MinBranchSize  int  `toml:"min_branch_size"`
	GenerateBlocks bool `toml:"generate_blocks"`
}

// EngineConfig holds every tunable the engine needs for one run: the
// stage schedule plus the bulge-removal and block-filtering thresholds,
// loaded from or saved to a TOML file.
type EngineConfig struct {
	Stages            []Stage `toml:"stage"`
	MinBlockSize      int     `toml:"min_block_size"`
	MaxDifferenceSize int     `toml:"max_difference_size"`
	MaxIterations     int     `toml:"max_iterations"`
	// SharedOnly keeps only blocks with at least one instance on every
	// input record.
	SharedOnly bool `toml:"shared_only"`
}

// validate checks the schedule and thresholds, so a malformed config is
// rejected before any graph work begins.
func (cfg EngineConfig) validate() error {
	if len(cfg.Stages) == 0 {
		return newError(KindInvalidParameter, "engine config has no stages")
	}
	for i, st := range cfg.Stages {
		if st.K < 2 {
			return newError(KindInvalidParameter, "stage %d: k = %d, must be at least 2", i, st.K)
		}
		if st.MinBranchSize < 0 {
			return newError(KindInvalidParameter, "stage %d: min branch size %d is negative", i, st.MinBranchSize)
		}
	}
	if cfg.MinBlockSize < 1 {
		return newError(KindInvalidParameter, "minimum block size %d, must be at least 1", cfg.MinBlockSize)
	}
	if cfg.MaxIterations < 1 {
		return newError(KindInvalidParameter, "max iterations %d, must be at least 1", cfg.MaxIterations)
	}
	return nil
}

// DefaultEngineConfig returns conservative settings suitable when no
// preset or config file is given.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Stages: []Stage{
			{K: 1000, MinBranchSize: 500},
			{K: 100, MinBranchSize: 500, GenerateBlocks: true},
		},
		MinBlockSize:      100,
		MaxDifferenceSize: 50,
		MaxIterations:     10,
	}
}

// LoosePreset favors long, coarse blocks suitable for distantly related
// genomes: fewer, larger stage k values and a single block-generating
// pass at the end.
func LoosePreset() EngineConfig {
	return EngineConfig{
		Stages: []Stage{
			{K: 5000, MinBranchSize: 1500},
			{K: 1000, MinBranchSize: 1500},
			{K: 500, MinBranchSize: 1500},
			{K: 100, MinBranchSize: 1500, GenerateBlocks: true},
		},
		MinBlockSize:      5000,
		MaxDifferenceSize: 100,
		MaxIterations:     10,
	}
}

// FinePreset resolves shorter, more numerous blocks suitable for closely
// related genomes, generating blocks at two stages so both a coarse and
// a fine-grained view are available.
func FinePreset() EngineConfig {
	return EngineConfig{
		Stages: []Stage{
			{K: 5000, MinBranchSize: 500},
			{K: 1000, MinBranchSize: 500},
			{K: 500, MinBranchSize: 500},
			{K: 100, MinBranchSize: 500, GenerateBlocks: true},
			{K: 50, MinBranchSize: 250},
			{K: 30, MinBranchSize: 150, GenerateBlocks: true},
		},
		MinBlockSize:      500,
		MaxDifferenceSize: 50,
		MaxIterations:     15,
	}
}

// FarPreset trades recall for precision when comparing genomes expected
// to share little synteny: a short stage schedule and a strict minimum
// block size to suppress spurious short matches.
func FarPreset() EngineConfig {
	return EngineConfig{
		Stages: []Stage{
			{K: 3000, MinBranchSize: 2000},
			{K: 1000, MinBranchSize: 2000},
			{K: 500, MinBranchSize: 2000, GenerateBlocks: true},
		},
		MinBlockSize:      10000,
		MaxDifferenceSize: 200,
		MaxIterations:     10,
	}
}

// Preset looks up a named schedule ("loose", "fine", or "far"), mirroring
// the named presets the original tool ships.
func Preset(name string) (EngineConfig, bool) {
	switch name {
	case "loose":
		return LoosePreset(), true
	case "fine":
		return FinePreset(), true
	case "far":
		return FarPreset(), true
	default:
		return EngineConfig{}, false
	}
}

// LoadStageList reads a plain-text stage parameter file: one stage per
// line as "k minBranchSize", both positive integers with k >= 2. Blank
// lines and lines starting with '#' are skipped. The final stage is
// marked block-generating, matching how an explicit schedule is meant
// to end in a block pass.
func LoadStageList(path string) ([]Stage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(KindIoError, err, "opening stage file %s", path)
	}
	defer f.Close()

	var stages []Stage
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, newError(KindInvalidParameter,
				"%s:%d: want two fields (k and min branch size), got %d", path, lineNo, len(fields))
		}
		k, err := strconv.Atoi(fields[0])
		if err != nil || k < 2 {
			return nil, newError(KindInvalidParameter, "%s:%d: k %q must be an integer of at least 2", path, lineNo, fields[0])
		}
		branch, err := strconv.Atoi(fields[1])
		if err != nil || branch < 1 {
			return nil, newError(KindInvalidParameter, "%s:%d: min branch size %q must be a positive integer", path, lineNo, fields[1])
		}
		stages = append(stages, Stage{K: k, MinBranchSize: branch})
	}
	if err := scanner.Err(); err != nil {
		return nil, wrapError(KindIoError, err, "reading stage file %s", path)
	}
	if len(stages) == 0 {
		return nil, newError(KindInvalidParameter, "stage file %s lists no stages", path)
	}
	stages[len(stages)-1].GenerateBlocks = true
	return stages, nil
}

// LoadEngineConfig reads a TOML config file at path.
func LoadEngineConfig(path string) (EngineConfig, error) {
	var cfg EngineConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return EngineConfig{}, wrapError(KindIoError, err, "loading engine config from %s", path)
	}
	return cfg, nil
}

// Write saves cfg as a TOML file at path, so a run's effective settings
// can be captured alongside its output.
func (cfg EngineConfig) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return wrapError(KindIoError, err, "creating engine config file %s", path)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return wrapError(KindIoError, err, "writing engine config to %s", path)
	}
	return nil
}

// trimK and lastK compute, from a stage schedule, each stage's trim
// floor and the final stage's, the way the original tool derives its
// trim constant from the current and prior stages' k values capped by
// the configured minimum block size. The minimum block size itself is
// a separate drop threshold applied unmodified at block assembly.
func trimK(stages []Stage, stageIndex, minBlockSize int) int {
	m := stages[0].K
	for i := 1; i <= stageIndex; i++ {
		if stages[i].K < m {
			m = stages[i].K
		}
	}
	if minBlockSize < m {
		return minBlockSize
	}
	return m
}

func lastK(stages []Stage, minBlockSize int) int {
	last := stages[len(stages)-1].K
	if minBlockSize < last {
		return minBlockSize
	}
	return last
}
