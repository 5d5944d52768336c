package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/pardetect/pkg/cache"
	"github.com/matzehuels/pardetect/pkg/detect"
	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/observability"
	"github.com/matzehuels/pardetect/pkg/pet"
)

func intPtr(v int) *int { return &v }

// reductionInput is a loop 0:1 (lines 10-20) with body 0:2 (lines 12-14)
// accumulating into sum, plus a dummy call target 0:3.
func reductionInput(hint bool) *pet.Input {
	in := &pet.Input{
		Units: map[string]pet.Unit{
			"0:1": {Type: int(pet.KindLoop), StartsAtLine: "0:10", EndsAtLine: "0:20", ChildrenNodes: []string{"0:2", "0:3"}},
			"0:2": {Type: int(pet.KindBasic), StartsAtLine: "0:12", EndsAtLine: "0:14"},
			"0:3": {Type: int(pet.KindDummy), StartsAtLine: "0:13", EndsAtLine: "0:13"},
		},
		Dependencies: []pet.DependencyFact{{Sink: "0:2", Source: "0:2", Type: pet.RAW, Var: "sum"}},
	}
	if hint {
		in.ReductionVars = []pet.ReductionHint{{LoopLine: "0:10", Name: "sum", Operation: "+"}}
	}
	return in
}

func newTestRunner() *Runner {
	return NewRunner(nil, nil, nil)
}

type stageRecorder struct {
	observability.NoopStageHooks
	stages []string
}

func (s *stageRecorder) OnStageStart(ctx context.Context, stage string) context.Context {
	s.stages = append(s.stages, stage)
	return ctx
}

func TestDetectReductionScenario(t *testing.T) {
	res, err := newTestRunner().Detect(context.Background(), reductionInput(true), Options{})
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	red := detect.Of[*detect.ReductionInfo](res.Results(detect.PatternReduction))
	if len(red) != 1 || red[0].Node != pet.MustParseID("0:1") {
		t.Fatalf("reduction = %+v", res.Results(detect.PatternReduction))
	}
	if n := len(res.Results(detect.PatternDoAll)); n != 0 {
		t.Errorf("do-all = %d, want 0", n)
	}
	if len(res.Removed) != 1 || res.Graph.HasNode(pet.MustParseID("0:3")) {
		t.Errorf("dummy not normalized away: removed=%v", res.Removed)
	}
	if res.RunID == "" || res.Fingerprint == 0 {
		t.Error("RunID and Fingerprint should be set")
	}
}

func TestDetectDoAllScenario(t *testing.T) {
	in := reductionInput(false)
	in.Dependencies = nil

	res, err := newTestRunner().Detect(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if n := len(res.Results(detect.PatternReduction)); n != 0 {
		t.Errorf("reduction = %d, want 0", n)
	}
	doall := detect.Of[*detect.DoAllInfo](res.Results(detect.PatternDoAll))
	if len(doall) != 1 || doall[0].Node != pet.MustParseID("0:1") {
		t.Errorf("do-all = %+v", res.Results(detect.PatternDoAll))
	}
}

func TestDetectNeverBothReductionAndDoAll(t *testing.T) {
	in := reductionInput(true)
	u := in.Units["0:1"]
	u.LocalVariables = []pet.Variable{{Name: "sum"}}
	in.Units["0:1"] = u

	res, err := newTestRunner().Detect(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	loop, _ := res.Graph.NodeAt(pet.MustParseID("0:1"))
	if !loop.Flags.Reduction || loop.Flags.DoAll {
		t.Errorf("flags = %+v, want reduction only", loop.Flags)
	}
	if len(res.Results(detect.PatternDoAll)) != 0 {
		t.Error("reduction loop reported as do-all")
	}
}

func TestDetectEmpty(t *testing.T) {
	for _, in := range []*pet.Input{nil, {Units: map[string]pet.Unit{}}} {
		res, err := newTestRunner().Detect(context.Background(), in, Options{})
		if err != nil {
			t.Fatalf("Detect error: %v", err)
		}
		if res.Count() != 0 {
			t.Errorf("Count = %d, want 0", res.Count())
		}
		for _, p := range detect.Order[:4] {
			if _, ok := res.Patterns[p]; !ok {
				t.Errorf("pattern %s missing from result", p)
			}
		}
		if _, ok := res.Patterns[detect.PatternTask]; ok {
			t.Error("task ran without EnableTask")
		}
	}
}

func TestDetectStageOrder(t *testing.T) {
	rec := &stageRecorder{}
	observability.SetStageHooks(rec)
	defer observability.Reset()

	_, err := newTestRunner().Detect(context.Background(), reductionInput(true), Options{EnableTask: true})
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	want := "build,normalize,metadata,reduction,do-all,pipeline,geometric-decomposition,task,aggregate"
	if got := strings.Join(rec.stages, ","); got != want {
		t.Errorf("stages = %s\nwant     %s", got, want)
	}
}

func TestDetectBuildFailure(t *testing.T) {
	in := reductionInput(true)
	in.Units["zero:1"] = pet.Unit{StartsAtLine: "0:1", EndsAtLine: "0:2"}

	res, err := newTestRunner().Detect(context.Background(), in, Options{})
	if res != nil {
		t.Error("no partial result on failure")
	}

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageBuild {
		t.Fatalf("error = %v, want StageError at build", err)
	}
	var malformed *pet.MalformedIDError
	if !errors.As(err, &malformed) || malformed.Value != "zero:1" {
		t.Errorf("cause = %v, want MalformedIDError", se.Cause)
	}
	if perrors.GetCode(err) != perrors.ErrCodeStageFailed || perrors.RootCode(err) != perrors.ErrCodeInvalidID {
		t.Errorf("codes = %q / %q", perrors.GetCode(err), perrors.RootCode(err))
	}
}

func TestDetectDetectorFailure(t *testing.T) {
	in := reductionInput(false)
	in.Loops = map[string]pet.LoopInfo{"0:1": {Iterations: intPtr(-3)}}

	res, err := newTestRunner().Detect(context.Background(), in, Options{})
	if res != nil {
		t.Error("no partial result on failure")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != string(detect.PatternDoAll) {
		t.Fatalf("error = %v, want StageError at do-all", err)
	}
	var de *detect.DetectionError
	if !errors.As(err, &de) || de.NodeID != "0:1" {
		t.Errorf("cause = %v, want DetectionError at 0:1", se.Cause)
	}
}

func TestDetectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner().Detect(ctx, reductionInput(true), Options{})
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageBuild || !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want cancelled build stage", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{Format: "yaml"}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("expected error for unsupported format")
	}

	opts = Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}
	if opts.Format != FormatText || opts.Logger == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if n := opts.NormalizeOptions(); !n.RemoveDummies || n.RestrictToLoops {
		t.Errorf("NormalizeOptions = %+v", n)
	}
}

func TestResultString(t *testing.T) {
	res, err := newTestRunner().Detect(context.Background(), reductionInput(true), Options{})
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	s := res.String()
	for _, want := range []string{
		"Reduction at: 0:1",
		"Start line: 0:10",
		"End line: 0:20",
		"reduction(+:sum)",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
	if !strings.HasPrefix(s, "\n\n\n") {
		t.Error("pattern blocks should start with blank lines")
	}
}

func TestReportWithCacheInfo(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	defer r.Close()

	opts := Options{Format: FormatJSON}
	first, hit, err := r.ReportWithCacheInfo(ctx, reductionInput(true), opts)
	if err != nil || hit {
		t.Fatalf("first report: hit=%v err=%v", hit, err)
	}
	second, hit, err := r.ReportWithCacheInfo(ctx, reductionInput(true), opts)
	if err != nil || !hit {
		t.Fatalf("second report: hit=%v err=%v", hit, err)
	}
	var a, b struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(first, &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(second, &b); err != nil {
		t.Fatal(err)
	}
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("run ids = %q, %q; want distinct", a.RunID, b.RunID)
	}
	if got, want := strings.Replace(string(second), b.RunID, a.RunID, 1), string(first); got != want {
		t.Error("cached report differs beyond its run id")
	}

	var decoded struct {
		Counts   map[string]int               `json:"counts"`
		Patterns map[string][]json.RawMessage `json:"patterns"`
	}
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if decoded.Counts["reduction"] != 1 || decoded.Counts["do-all"] != 0 {
		t.Errorf("counts = %v", decoded.Counts)
	}
	if !strings.Contains(string(decoded.Patterns["reduction"][0]), `"node_id": "0:1"`) {
		t.Errorf("reduction entry = %s", decoded.Patterns["reduction"][0])
	}

	_, hit, _ = r.ReportWithCacheInfo(ctx, reductionInput(true), Options{Format: FormatText})
	if hit {
		t.Error("different format should miss")
	}
	_, hit, _ = r.ReportWithCacheInfo(ctx, reductionInput(true), Options{Format: FormatJSON, Refresh: true})
	if hit {
		t.Error("Refresh should bypass the cache")
	}
}

func TestStatsRecorded(t *testing.T) {
	res, err := newTestRunner().Detect(context.Background(), reductionInput(true), Options{})
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if len(res.Stats.Stages) != 8 {
		t.Errorf("stage timings = %d, want 8", len(res.Stats.Stages))
	}
	if res.Stats.NodeCount != 2 || res.Stats.Removed != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Stats.Stages[0].Stage != StageBuild || res.Stats.Stages[0].Results != 3 {
		t.Errorf("build timing = %+v", res.Stats.Stages[0])
	}
}
