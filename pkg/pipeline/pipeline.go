// Package pipeline runs pattern detection end to end.
//
// This package implements the build → normalize → metadata → detect →
// aggregate sequence shared by the CLI and the HTTP API, so both entry points
// behave identically.
//
// # Stages
//
//  1. build: construct the PET graph from the input
//  2. normalize: remove dummy units
//  3. metadata: compute per-function aggregates
//  4. one stage per detector, in [detect.Order]; task only when enabled
//  5. aggregate: assemble the [Result]
//
// Each stage runs only after the previous one succeeded. Any failure aborts
// the run with a *[StageError] naming the stage, and no partial result is
// returned. The context is checked between stages; a stage itself is never
// interrupted.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Detect(ctx, input, pipeline.Options{EnableTask: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result)
//
// Rendered reports are cached by input hash and options:
//
//	report, hit, err := runner.ReportWithCacheInfo(ctx, input, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pardetect/pkg/cache"
	"github.com/matzehuels/pardetect/pkg/detect"
	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/pet/transform"
)

// Stage names besides the per-pattern detector stages.
const (
	StageBuild     = "build"
	StageNormalize = "normalize"
	StageMetadata  = "metadata"
	StageAggregate = "aggregate"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormats is the set of supported report formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
}

// Options configures a detection run. It supports JSON for API requests.
type Options struct {
	// EnableTask runs task-parallelism detection after the other detectors.
	EnableTask bool               `json:"enable_task,omitempty"`
	Task       detect.TaskOptions `json:"task,omitempty"`

	// RestrictToLoops limits dummy elision to loop bodies.
	RestrictToLoops bool `json:"restrict_to_loops,omitempty"`
	// KeepDummies skips dummy elision entirely.
	KeepDummies bool `json:"keep_dummies,omitempty"`
	// PipelineAllowDoAll lets pipeline detection consider do-all loops.
	PipelineAllowDoAll bool `json:"pipeline_allow_doall,omitempty"`

	// Format selects the report rendering: "text" (default) or "json".
	Format string `json:"format,omitempty"`
	// Refresh bypasses the report cache.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Format == "" {
		o.Format = FormatText
	}
	if !ValidFormats[o.Format] {
		return perrors.New(perrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: text, json)", o.Format)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// NormalizeOptions returns the dummy-elision settings for the run.
func (o *Options) NormalizeOptions() transform.NormalizeOptions {
	return transform.NormalizeOptions{
		RestrictToLoops: o.RestrictToLoops,
		RemoveDummies:   !o.KeepDummies,
	}
}

// DetectOptions returns the detector tuning for the run.
func (o *Options) DetectOptions() detect.Options {
	return detect.Options{PipelineAllowDoAll: o.PipelineAllowDoAll}
}

// ReportKeyOpts returns cache key options for report caching.
func (o *Options) ReportKeyOpts() cache.ReportKeyOpts {
	opts := cache.ReportKeyOpts{
		Format:             o.Format,
		EnableTask:         o.EnableTask,
		RestrictToLoops:    o.RestrictToLoops,
		RemoveDummies:      !o.KeepDummies,
		PipelineAllowDoAll: o.PipelineAllowDoAll,
	}
	if o.EnableTask {
		opts.TaskOptions = fmt.Sprintf("%+v", o.Task)
	}
	return opts
}

// Stats holds timing and size information of a run.
type Stats struct {
	NodeCount int
	EdgeCount int
	Removed   int
	Stages    []StageTiming
	Total     time.Duration
}

// StageTiming is the duration and output size of one stage.
type StageTiming struct {
	Stage    string
	Results  int
	Duration time.Duration
}
