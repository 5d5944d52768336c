package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/pardetect/pkg/detect"
	"github.com/matzehuels/pardetect/pkg/pet"
)

// Result is the outcome of one detection run. It is read-only once returned.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string
	// Graph is the normalized graph, with detector flags set.
	Graph *pet.Graph
	// Patterns holds the results of every detector that ran. Task is absent
	// unless enabled.
	Patterns map[detect.Pattern][]detect.Result
	// Removed lists the units dropped by normalization.
	Removed []pet.ID
	// Fingerprint is the structural hash of Graph.
	Fingerprint uint64
	Stats       Stats
}

// Results returns the results for p, in emission order.
func (r *Result) Results(p detect.Pattern) []detect.Result { return r.Patterns[p] }

// Count returns the total number of results.
func (r *Result) Count() int {
	n := 0
	for _, rs := range r.Patterns {
		n += len(rs)
	}
	return n
}

// All returns every result, grouped by pattern in detect.Order.
func (r *Result) All() []detect.Result {
	var out []detect.Result
	for _, p := range detect.Order {
		out = append(out, r.Patterns[p]...)
	}
	return out
}

// String renders every result in detect.Order. Each pattern block starts
// with blank lines and each result is followed by one. Results without a
// String method are described against the graph.
func (r *Result) String() string {
	var b strings.Builder
	for _, p := range detect.Order {
		rs, ok := r.Patterns[p]
		if !ok {
			continue
		}
		b.WriteString("\n\n\n")
		for _, res := range rs {
			if s, ok := res.(fmt.Stringer); ok {
				b.WriteString(s.String())
			} else {
				b.WriteString(res.Describe(r.Graph))
			}
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// Report is the serializable form of a Result.
type Report struct {
	RunID       string                             `json:"run_id"`
	Fingerprint string                             `json:"fingerprint"`
	Nodes       int                                `json:"nodes"`
	Edges       int                                `json:"edges"`
	Removed     []string                           `json:"removed,omitempty"`
	Warnings    []string                           `json:"warnings,omitempty"`
	Patterns    map[detect.Pattern][]detect.Result `json:"patterns"`
	Counts      map[detect.Pattern]int             `json:"counts"`
	Text        string                             `json:"-"`
}

// Report builds the serializable form of r.
func (r *Result) Report() *Report {
	rep := &Report{
		RunID:       r.RunID,
		Fingerprint: strconv.FormatUint(r.Fingerprint, 16),
		Nodes:       r.Graph.NodeCount(),
		Edges:       r.Graph.EdgeCount(),
		Patterns:    make(map[detect.Pattern][]detect.Result, len(r.Patterns)),
		Counts:      make(map[detect.Pattern]int, len(r.Patterns)),
		Text:        r.String(),
	}
	for _, id := range r.Removed {
		rep.Removed = append(rep.Removed, id.String())
	}
	for _, w := range r.Graph.Warnings() {
		rep.Warnings = append(rep.Warnings, w.Message)
	}
	for p, rs := range r.Patterns {
		if rs == nil {
			rs = []detect.Result{}
		}
		rep.Patterns[p] = rs
		rep.Counts[p] = len(rs)
	}
	return rep
}

// Render encodes the result as "text" or "json".
func (r *Result) Render(format string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return []byte(r.String()), nil
	case FormatJSON:
		data, err := json.MarshalIndent(r.Report(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("invalid format: %q", format)
	}
}
