package detect

import (
	"fmt"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
)

// DetectionError reports malformed input found by a detector. NodeID is
// empty when the offending input is not tied to a unit.
type DetectionError struct {
	Pattern Pattern
	NodeID  string
	Cause   error
}

func (e *DetectionError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("%s detection: %v", e.Pattern, e.Cause)
	}
	return fmt.Sprintf("%s detection at %s: %v", e.Pattern, e.NodeID, e.Cause)
}

func (e *DetectionError) Unwrap() error { return e.Cause }

// Code returns the machine-readable error code.
func (e *DetectionError) Code() perrors.Code { return perrors.ErrCodeDetectionFailed }
