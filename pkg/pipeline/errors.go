package pipeline

import (
	"fmt"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
)

// StageError is returned when a stage of a detection run fails. The
// underlying error stays reachable through errors.As and errors.Is.
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

// Code returns the machine-readable error code.
func (e *StageError) Code() perrors.Code { return perrors.ErrCodeStageFailed }
