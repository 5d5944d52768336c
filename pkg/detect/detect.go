package detect

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pardetect/pkg/pet"
)

// Pattern names a kind of parallelization opportunity.
type Pattern string

const (
	PatternReduction Pattern = "reduction"
	PatternDoAll     Pattern = "do-all"
	PatternPipeline  Pattern = "pipeline"
	PatternGeometric Pattern = "geometric-decomposition"
	PatternTask      Pattern = "task"
)

// Order is the mandated detector run order.
var Order = [...]Pattern{
	PatternReduction,
	PatternDoAll,
	PatternPipeline,
	PatternGeometric,
	PatternTask,
}

// Detector finds all occurrences of one pattern.
type Detector interface {
	Pattern() Pattern
	Detect(c *Context) ([]Result, error)
}

// TaskOptions are auxiliary task-detection inputs. They are not interpreted
// here and are echoed in each TaskInfo.
type TaskOptions struct {
	FileMapping string `json:"file_mapping,omitempty"`
	ResultsFile string `json:"results_file,omitempty"`
	CxxfiltPath string `json:"cxxfilt_path,omitempty"`
	BuildDir    string `json:"build_dir,omitempty"`
}

// Session numbers results across one detection run.
type Session struct {
	next int
}

// NextID returns the next result id, starting at 1.
func (s *Session) NextID() int {
	s.next++
	return s.next
}

// Context is what a detector sees.
type Context struct {
	// Graph is the normalized graph with function metadata computed.
	Graph pet.View
	// Input is the raw construction input. Only task detection reads it.
	Input *pet.Input
	// Task holds the task-detection passthrough options.
	Task TaskOptions
	// Logger receives debug output. Nil discards.
	Logger *log.Logger
	// Session assigns result ids. Nil gets a fresh session on first use.
	Session *Session
}

func (c *Context) logger() *log.Logger {
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c.Logger
}

func (c *Context) nextID() int {
	if c.Session == nil {
		c.Session = &Session{}
	}
	return c.Session.NextID()
}

// Detectors returns the built-in detectors in Order.
func Detectors(opts Options) []Detector {
	return []Detector{
		Reduction{},
		DoAll{},
		Pipeline{AllowDoAll: opts.PipelineAllowDoAll},
		GeometricDecomposition{},
		Task{},
	}
}

// Options tunes the built-in detectors.
type Options struct {
	// PipelineAllowDoAll lets pipeline detection consider do-all loops.
	PipelineAllowDoAll bool
}

// Of returns the results whose dynamic type is T, in order.
func Of[T Result](results []Result) []T {
	var out []T
	for _, r := range results {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
