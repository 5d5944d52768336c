package io

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/pet"
)

// Native file names written by the DiscoPoP instrumentation.
const (
	DataFile        = "Data.xml"
	DepSuffix       = "_dep.txt"
	LoopCounterFile = "loop_counter_output.txt"
	ReductionFile   = "reduction.txt"
)

// NativeFiles are the readers for one native output set. Data is
// required; the others may be nil.
type NativeFiles struct {
	Data         io.Reader
	Dependencies io.Reader
	LoopCounters io.Reader
	Reductions   io.Reader
}

// ReadNative assembles an input bundle from native instrumentation output.
func ReadNative(files NativeFiles) (*pet.Input, error) {
	if files.Data == nil {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "missing %s", DataFile)
	}
	units, err := ReadDataXML(files.Data)
	if err != nil {
		return nil, err
	}
	in := &pet.Input{Units: units}
	idx := NewLineIndex(units)

	if files.Dependencies != nil {
		if in.Dependencies, err = ReadDependencies(files.Dependencies, idx); err != nil {
			return nil, err
		}
	}
	if files.LoopCounters != nil {
		if in.Loops, err = ReadLoopCounters(files.LoopCounters, idx); err != nil {
			return nil, err
		}
	}
	if files.Reductions != nil {
		if in.ReductionVars, err = ReadReductions(files.Reductions); err != nil {
			return nil, err
		}
	}
	return in, nil
}

type xmlNodes struct {
	Nodes []xmlNode `xml:"Node"`
}

type xmlNode struct {
	ID                string   `xml:"id,attr"`
	Type              int      `xml:"type,attr"`
	Name              string   `xml:"name,attr"`
	StartsAtLine      string   `xml:"startsAtLine,attr"`
	EndsAtLine        string   `xml:"endsAtLine,attr"`
	InstructionsCount int      `xml:"instructionsCount,attr"`
	ChildrenNodes     string   `xml:"childrenNodes"`
	Successors        []string `xml:"successors>CU"`
	Calls             []string `xml:"callsNode>nodeCalled"`
	Locals            []xmlVar `xml:"localVariables>local"`
	Globals           []xmlVar `xml:"globalVariables>global"`
	Args              []xmlVar `xml:"funcArguments>arg"`
}

type xmlVar struct {
	Type string `xml:"type,attr"`
	Name string `xml:",chardata"`
}

// ReadDataXML decodes the unit descriptions of a Data.xml file.
func ReadDataXML(r io.Reader) (map[string]pet.Unit, error) {
	var doc xmlNodes
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode %s", DataFile)
	}
	units := make(map[string]pet.Unit, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if _, dup := units[n.ID]; dup {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "duplicate node %s in %s", n.ID, DataFile)
		}
		units[n.ID] = pet.Unit{
			Type:              n.Type,
			Name:              n.Name,
			StartsAtLine:      n.StartsAtLine,
			EndsAtLine:        n.EndsAtLine,
			InstructionsCount: n.InstructionsCount,
			ChildrenNodes:     splitList(n.ChildrenNodes),
			Successors:        trimAll(n.Successors),
			CallsNode:         trimAll(n.Calls),
			LocalVariables:    vars(n.Locals),
			GlobalVariables:   vars(n.Globals),
			FuncArguments:     vars(n.Args),
		}
	}
	return units, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func vars(in []xmlVar) []pet.Variable {
	var out []pet.Variable
	for _, v := range in {
		if name := strings.TrimSpace(v.Name); name != "" {
			out = append(out, pet.Variable{Name: name, Type: v.Type})
		}
	}
	return out
}

// LineIndex resolves source locations to the units that cover them.
type LineIndex struct {
	spans []span
}

type span struct {
	id         string
	kind       pet.Kind
	file       int
	start, end int
}

// NewLineIndex indexes the spans of units. Units with unparseable or
// cross-file spans are left out.
func NewLineIndex(units map[string]pet.Unit) *LineIndex {
	idx := &LineIndex{}
	for id, u := range units {
		start, err := pet.ParseLocation("startsAtLine", u.StartsAtLine)
		if err != nil {
			continue
		}
		end, err := pet.ParseLocation("endsAtLine", u.EndsAtLine)
		if err != nil || end.File != start.File {
			continue
		}
		idx.spans = append(idx.spans, span{id: id, kind: pet.Kind(u.Type), file: start.File, start: start.Line, end: end.Line})
	}
	sort.Slice(idx.spans, func(i, j int) bool { return idx.spans[i].id < idx.spans[j].id })
	return idx
}

// UnitAt returns the innermost plain unit covering loc, falling back to
// the innermost unit of any kind.
func (x *LineIndex) UnitAt(loc pet.Location) (string, bool) {
	best, bestPlain := -1, -1
	for i, s := range x.spans {
		if s.file != loc.File || loc.Line < s.start || loc.Line > s.end {
			continue
		}
		if best < 0 || narrower(s, x.spans[best]) {
			best = i
		}
		if s.kind == pet.KindBasic && (bestPlain < 0 || narrower(s, x.spans[bestPlain])) {
			bestPlain = i
		}
	}
	switch {
	case bestPlain >= 0:
		return x.spans[bestPlain].id, true
	case best >= 0:
		return x.spans[best].id, true
	}
	return "", false
}

// LoopAt returns the loop unit starting at loc.
func (x *LineIndex) LoopAt(loc pet.Location) (string, bool) {
	for _, s := range x.spans {
		if s.kind == pet.KindLoop && s.file == loc.File && s.start == loc.Line {
			return s.id, true
		}
	}
	return "", false
}

// maxLineSize bounds a single profiler line. All dependencies of one sink
// share a line, so lines grow with the profile.
const maxLineSize = 64 << 20

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

func narrower(a, b span) bool { return a.end-a.start < b.end-b.start }

// ReadDependencies parses a dependency list. Each line names a sink
// location followed by "NOM" and any number of "<TYPE> <source>|<var>"
// entries; BGN and END loop markers are skipped. A type suffixed with
// "_II" marks an inter-iteration dependency. Locations no unit covers
// are dropped.
func ReadDependencies(r io.Reader, idx *LineIndex) ([]pet.DependencyFact, error) {
	var deps []pet.DependencyFact
	sc := newLineScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[1] != "NOM" {
			continue
		}
		sinkLoc, err := pet.ParseLocation("dependency sink", fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		sink, ok := idx.UnitAt(sinkLoc)
		if !ok {
			continue
		}
		entries := fields[2:]
		for i := 0; i+1 < len(entries); i += 2 {
			typ, interIter := parseDepType(entries[i])
			if typ == pet.INIT {
				continue
			}
			srcField, variable, _ := strings.Cut(entries[i+1], "|")
			srcLoc, err := pet.ParseLocation("dependency source", srcField)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			source, ok := idx.UnitAt(srcLoc)
			if !ok {
				continue
			}
			deps = append(deps, pet.DependencyFact{
				Sink:           sink,
				Source:         source,
				Type:           typ,
				Var:            variable,
				InterIteration: interIter,
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dependencies: %w", err)
	}
	return deps, nil
}

func parseDepType(s string) (pet.DepType, bool) {
	base, suffix, _ := strings.Cut(s, "_")
	return pet.DepType(base), strings.HasPrefix(suffix, "II")
}

// ReadLoopCounters parses "<file> <line> <count>" lines and attaches each
// count to the loop unit starting at that location.
func ReadLoopCounters(r io.Reader, idx *LineIndex) (map[string]pet.LoopInfo, error) {
	loops := make(map[string]pet.LoopInfo)
	sc := newLineScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "%s line %d: want 3 fields, got %d", LoopCounterFile, lineNo, len(fields))
		}
		nums := make([]int, 3)
		for i, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "%s line %d", LoopCounterFile, lineNo)
			}
			nums[i] = n
		}
		id, ok := idx.LoopAt(pet.Location{File: nums[0], Line: nums[1]})
		if !ok {
			continue
		}
		count := nums[2]
		info := loops[id]
		info.Iterations = &count
		loops[id] = info
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read loop counters: %w", err)
	}
	return loops, nil
}

// ReadReductions parses reduction.txt lines of the form
//
//	FileID : 1 Loop Line Number : 5 Reduction Line Number : 7 Variable Name : sum Operation Name : +
func ReadReductions(r io.Reader) ([]pet.ReductionHint, error) {
	var hints []pet.ReductionHint
	sc := newLineScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		vals := reductionFields(line)
		file, loop, name := vals["FileID"], vals["Loop Line Number"], vals["Variable Name"]
		if file == "" || loop == "" || name == "" {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "%s line %d: malformed entry %q", ReductionFile, lineNo, line)
		}
		h := pet.ReductionHint{
			LoopLine:  file + ":" + loop,
			Name:      name,
			Operation: vals["Operation Name"],
		}
		if red := vals["Reduction Line Number"]; red != "" {
			h.ReductionLine = file + ":" + red
		}
		hints = append(hints, h)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read reductions: %w", err)
	}
	return hints, nil
}

var reductionLabels = []string{"FileID", "Loop Line Number", "Reduction Line Number", "Variable Name", "Operation Name"}

// reductionFields splits a reduction line into its labelled values. A
// value is the first token after "<label> :".
func reductionFields(line string) map[string]string {
	vals := make(map[string]string)
	for _, label := range reductionLabels {
		i := strings.Index(line, label)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(line[i+len(label):])
		rest, ok := strings.CutPrefix(rest, ":")
		if !ok {
			continue
		}
		if f := strings.Fields(rest); len(f) > 0 {
			vals[label] = f[0]
		}
	}
	return vals
}
