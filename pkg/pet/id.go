package pet

import (
	"strconv"
	"strings"
)

// ID is the composite key of a computational unit: the file it was
// instrumented in and its ordinal within that file. The zero value is the
// valid id "0:0".
type ID struct {
	File int
	Node int
}

// String formats the id as "<file>:<node>".
func (id ID) String() string {
	return strconv.Itoa(id.File) + ":" + strconv.Itoa(id.Node)
}

// MarshalText encodes the id in its "<file>:<node>" form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses an id written by MarshalText.
func (id *ID) UnmarshalText(b []byte) error {
	v, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Less orders ids by file, then node.
func (id ID) Less(other ID) bool {
	if id.File != other.File {
		return id.File < other.File
	}
	return id.Node < other.Node
}

// ParseID parses "<file>:<node>". Both halves must be canonical non-negative
// decimals (no sign, no leading zeros), so ParseID(s).String() == s for every
// accepted s.
func ParseID(s string) (ID, error) {
	f, n, ok := splitPair(s)
	if !ok {
		return ID{}, &MalformedIDError{Field: "id", Value: s}
	}
	return ID{File: f, Node: n}, nil
}

// MustParseID is like ParseID but panics on malformed input.
// It is meant for tests and literals.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Location is a source position "<file>:<line>" as reported by the
// instrumentation front end.
type Location struct {
	File int
	Line int
}

// String formats the location as "<file>:<line>".
func (l Location) String() string {
	return strconv.Itoa(l.File) + ":" + strconv.Itoa(l.Line)
}

// MarshalText encodes the location in its "<file>:<line>" form.
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLocation parses "<file>:<line>" with the same rules as ParseID.
// field names the input attribute for error reporting.
func ParseLocation(field, s string) (Location, error) {
	f, l, ok := splitPair(s)
	if !ok {
		return Location{}, &MalformedIDError{Field: field, Value: s}
	}
	return Location{File: f, Line: l}, nil
}

func splitPair(s string) (int, int, bool) {
	a, b, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	x, ok := parseCanonical(a)
	if !ok {
		return 0, 0, false
	}
	y, ok := parseCanonical(b)
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}

func parseCanonical(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
