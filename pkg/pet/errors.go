package pet

import (
	"errors"
	"fmt"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
)

var (
	// ErrNodeNotFound is matched by every [NodeNotFoundError].
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound is matched by every [EdgeNotFoundError].
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrDuplicateNode is returned when two unit descriptions resolve to the
	// same composite key.
	ErrDuplicateNode = errors.New("duplicate node id")
)

// MalformedIDError reports an id or location string that is not of the form
// "<int>:<int>".
type MalformedIDError struct {
	Field string // input attribute, e.g. "id", "startsAtLine", "childrenNodes"
	Value string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("malformed %s %q: want \"<file>:<number>\"", e.Field, e.Value)
}

// Code returns the machine-readable error code.
func (e *MalformedIDError) Code() perrors.Code { return perrors.ErrCodeInvalidID }

// InvalidUnitError reports a unit description that parsed but violates a
// structural invariant (unknown kind, inverted span).
type InvalidUnitError struct {
	ID     string
	Field  string
	Reason string
}

func (e *InvalidUnitError) Error() string {
	return fmt.Sprintf("unit %s: %s: %s", e.ID, e.Field, e.Reason)
}

// Code returns the machine-readable error code.
func (e *InvalidUnitError) Code() perrors.Code { return perrors.ErrCodeInvalidUnit }

// NodeNotFoundError is returned by accessors dereferencing an id that has no
// node, including the unresolved end of a dangling edge.
type NodeNotFoundError struct {
	ID ID
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.ID)
}

// Is matches [ErrNodeNotFound].
func (e *NodeNotFoundError) Is(target error) bool { return target == ErrNodeNotFound }

// Code returns the machine-readable error code.
func (e *NodeNotFoundError) Code() perrors.Code { return perrors.ErrCodeNodeNotFound }

// EdgeNotFoundError is returned by [Graph.EdgesBetween] when no edge connects
// the ordered pair.
type EdgeNotFoundError struct {
	Key EdgeKey
}

func (e *EdgeNotFoundError) Error() string {
	return fmt.Sprintf("no edge %s -> %s", e.Key.From, e.Key.To)
}

// Is matches [ErrEdgeNotFound].
func (e *EdgeNotFoundError) Is(target error) bool { return target == ErrEdgeNotFound }

// Code returns the machine-readable error code.
func (e *EdgeNotFoundError) Code() perrors.Code { return perrors.ErrCodeEdgeNotFound }
