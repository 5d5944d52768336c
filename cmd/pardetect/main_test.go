package main

import (
	"errors"
	"fmt"
	"testing"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", errors.New("boom"), 1},
		{"invalid format", perrors.New(perrors.ErrCodeInvalidFormat, "bad"), 2},
		{"missing file", fmt.Errorf("load: %w", perrors.New(perrors.ErrCodeFileNotFound, "gone")), 2},
		{"detection", perrors.New(perrors.ErrCodeDetectionFailed, "bad loop"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
