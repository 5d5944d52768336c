package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pardetect/pkg/cache"
	"github.com/matzehuels/pardetect/pkg/detect"
	"github.com/matzehuels/pardetect/pkg/observability"
	"github.com/matzehuels/pardetect/pkg/pet"
	"github.com/matzehuels/pardetect/pkg/pet/transform"
)

// Runner executes detection runs with report caching. It holds no per-run
// state, so one Runner may serve concurrent runs with different inputs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// selects cache.DefaultKeyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Detect runs every stage over in and returns the aggregated result.
func (r *Runner) Detect(ctx context.Context, in *pet.Input, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	start := time.Now()
	var stats Stats

	var g *pet.Graph
	err := r.runStage(ctx, logger, &stats, StageBuild, func() (int, error) {
		var err error
		g, err = pet.Build(in, logger)
		if err != nil {
			return 0, err
		}
		return g.NodeCount(), nil
	})
	if err != nil {
		return nil, err
	}

	var removed []pet.ID
	err = r.runStage(ctx, logger, &stats, StageNormalize, func() (int, error) {
		removed = transform.Normalize(g, opts.NormalizeOptions())
		return len(removed), nil
	})
	if err != nil {
		return nil, err
	}

	err = r.runStage(ctx, logger, &stats, StageMetadata, func() (int, error) {
		transform.ComputeFunctionMetadata(g)
		return 0, nil
	})
	if err != nil {
		return nil, err
	}

	dc := &detect.Context{
		Graph:   g,
		Input:   in,
		Task:    opts.Task,
		Logger:  logger,
		Session: &detect.Session{},
	}
	patterns := make(map[detect.Pattern][]detect.Result)
	for _, d := range r.detectors(opts) {
		var results []detect.Result
		err := r.runStage(ctx, logger, &stats, string(d.Pattern()), func() (int, error) {
			var err error
			results, err = d.Detect(dc)
			return len(results), err
		})
		if err != nil {
			return nil, err
		}
		patterns[d.Pattern()] = results
	}

	var result *Result
	err = r.runStage(ctx, logger, &stats, StageAggregate, func() (int, error) {
		fp, err := g.Fingerprint()
		if err != nil {
			return 0, err
		}
		stats.NodeCount = g.NodeCount()
		stats.EdgeCount = g.EdgeCount()
		stats.Removed = len(removed)
		result = &Result{
			RunID:       uuid.NewString(),
			Graph:       g,
			Patterns:    patterns,
			Removed:     removed,
			Fingerprint: fp,
		}
		return result.Count(), nil
	})
	if err != nil {
		return nil, err
	}

	stats.Total = time.Since(start)
	result.Stats = stats
	logger.Info("detection complete",
		"nodes", stats.NodeCount,
		"patterns", result.Count(),
		"duration", stats.Total)
	return result, nil
}

// ReportWithCacheInfo runs detection and renders the report in
// opts.Format, consulting the cache first. The bool reports a cache hit.
// A cached JSON report is served under a fresh run id.
func (r *Runner) ReportWithCacheInfo(ctx context.Context, in *pet.Input, opts Options) ([]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	inputData, err := json.Marshal(in)
	if err != nil {
		return nil, false, fmt.Errorf("hash input: %w", err)
	}
	key := r.Keyer.ReportKey(cache.Hash(inputData), opts.ReportKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, "report")
			opts.Logger.Debug("report cache hit", "key", key)
			if opts.Format == FormatJSON {
				if data, err = restampRunID(data); err != nil {
					return nil, false, err
				}
			}
			return data, true, nil
		}
		hooks.OnCacheMiss(ctx, "report")
	}

	result, err := r.Detect(ctx, in, opts)
	if err != nil {
		return nil, false, err
	}
	data, err := result.Render(opts.Format)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.TTLReport); err != nil {
		opts.Logger.Warn("cache report", "error", err)
	} else {
		hooks.OnCacheSet(ctx, "report", len(data))
	}
	return data, false, nil
}

// restampRunID replaces the run id of a rendered JSON report.
func restampRunID(data []byte) ([]byte, error) {
	var head struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode cached report: %w", err)
	}
	old := []byte(`"run_id": "` + head.RunID + `"`)
	return bytes.Replace(data, old, []byte(`"run_id": "`+uuid.NewString()+`"`), 1), nil
}

// Report is a convenience wrapper around ReportWithCacheInfo.
func (r *Runner) Report(ctx context.Context, in *pet.Input, opts Options) ([]byte, error) {
	data, _, err := r.ReportWithCacheInfo(ctx, in, opts)
	return data, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) detectors(opts Options) []detect.Detector {
	var out []detect.Detector
	for _, d := range detect.Detectors(opts.DetectOptions()) {
		if d.Pattern() == detect.PatternTask && !opts.EnableTask {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (r *Runner) runStage(ctx context.Context, logger *log.Logger, stats *Stats, stage string, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Cause: err}
	}

	hooks := observability.Stages()
	sctx := hooks.OnStageStart(ctx, stage)
	start := time.Now()
	n, err := fn()
	elapsed := time.Since(start)
	hooks.OnStageComplete(sctx, stage, n, elapsed, err)

	if err != nil {
		logger.Debug("stage failed", "stage", stage, "error", err)
		return &StageError{Stage: stage, Cause: err}
	}
	stats.Stages = append(stats.Stages, StageTiming{Stage: stage, Results: n, Duration: elapsed})
	logger.Debug("stage complete", "stage", stage, "results", n, "duration", elapsed)
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
