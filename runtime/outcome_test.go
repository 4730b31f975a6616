package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pithecene-io/utf8conv/types"
)

func TestDetermineOutcome(t *testing.T) {
	readErr := &IngestionError{Kind: IngestionErrorRead, Err: errors.New("read input: eof")}
	policyErr := &IngestionError{Kind: IngestionErrorPolicy, Err: errors.New("sink down")}
	invalidErr := &IngestionError{Kind: IngestionErrorInvalidInput, Err: errors.New("invalid input")}
	canceledErr := &IngestionError{Kind: IngestionErrorCanceled, Err: context.Canceled}

	tests := []struct {
		name         string
		ingErr       error
		flushErr     error
		replacements int64
		want         types.OutcomeStatus
	}{
		{"clean", nil, nil, 0, types.OutcomeSuccess},
		{"replacements", nil, nil, 3, types.OutcomeLossy},
		{"flush failure", nil, errors.New("flush"), 0, types.OutcomeIOError},
		{"flush beats lossy", nil, errors.New("flush"), 2, types.OutcomeIOError},
		{"read error", readErr, nil, 0, types.OutcomeIOError},
		{"policy error", policyErr, nil, 0, types.OutcomeIOError},
		{"invalid input", invalidErr, nil, 1, types.OutcomeInvalidInput},
		{"canceled", canceledErr, errors.New("flush"), 0, types.OutcomeCanceled},
		{"wrapped invalid input", fmt.Errorf("run: %w", invalidErr), nil, 0, types.OutcomeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineOutcome(tt.ingErr, tt.flushErr, tt.replacements)
			if got.Status != tt.want {
				t.Errorf("DetermineOutcome() status = %q, want %q", got.Status, tt.want)
			}
			if got.Message == "" {
				t.Error("DetermineOutcome() message is empty")
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		status types.OutcomeStatus
		want   int
	}{
		{types.OutcomeSuccess, ExitCodeSuccess},
		{types.OutcomeLossy, ExitCodeSuccess},
		{types.OutcomeInvalidInput, ExitCodeInvalidInput},
		{types.OutcomeIOError, ExitCodeIOError},
		{types.OutcomeCanceled, ExitCodeIOError},
	}
	for _, tt := range tests {
		if got := ExitCodeFor(tt.status); got != tt.want {
			t.Errorf("ExitCodeFor(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestIngestionErrorClassifiers(t *testing.T) {
	plain := errors.New("plain")
	tests := []struct {
		name     string
		err      error
		read     bool
		policy   bool
		invalid  bool
		canceled bool
	}{
		{"read", &IngestionError{Kind: IngestionErrorRead, Err: plain}, true, false, false, false},
		{"policy", &IngestionError{Kind: IngestionErrorPolicy, Err: plain}, false, true, false, false},
		{"invalid", &IngestionError{Kind: IngestionErrorInvalidInput, Err: plain}, false, false, true, false},
		{"canceled", &IngestionError{Kind: IngestionErrorCanceled, Err: plain}, false, false, false, true},
		{"unclassified", plain, false, false, false, false},
		{"nil", nil, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReadError(tt.err); got != tt.read {
				t.Errorf("IsReadError() = %v, want %v", got, tt.read)
			}
			if got := IsPolicyError(tt.err); got != tt.policy {
				t.Errorf("IsPolicyError() = %v, want %v", got, tt.policy)
			}
			if got := IsInvalidInputError(tt.err); got != tt.invalid {
				t.Errorf("IsInvalidInputError() = %v, want %v", got, tt.invalid)
			}
			if got := IsCanceledError(tt.err); got != tt.canceled {
				t.Errorf("IsCanceledError() = %v, want %v", got, tt.canceled)
			}
		})
	}
}

func TestIngestionError_Unwrap(t *testing.T) {
	err := &IngestionError{Kind: IngestionErrorCanceled, Err: context.Canceled}
	if !errors.Is(err, context.Canceled) {
		t.Error("errors.Is(IngestionError, context.Canceled) = false, want true")
	}
	if err.Kind.String() != "canceled" {
		t.Errorf("Kind.String() = %q, want canceled", err.Kind.String())
	}
}
