package runtime

import (
	"fmt"

	"github.com/pithecene-io/utf8conv/types"
)

// Process exit codes for a conversion run.
const (
	ExitCodeSuccess      = 0 // success or lossy
	ExitCodeIOError      = 1 // read, sink, or flush failure; canceled
	ExitCodeInvalidInput = 2 // ill-formed input rejected
	ExitCodeConfig       = 3 // invalid arguments or configuration
)

// DetermineOutcome determines the run outcome from the ingestion error, the
// final flush error and the number of replacements made.
//
// Precedence:
//  1. Ingestion error (canceled, invalid input, read, policy)
//  2. Flush failure
//  3. Replacements: lossy
//  4. Otherwise success
func DetermineOutcome(ingErr, flushErr error, replacements int64) *types.RunOutcome {
	if ingErr != nil {
		switch {
		case IsCanceledError(ingErr):
			return &types.RunOutcome{
				Status:  types.OutcomeCanceled,
				Message: fmt.Sprintf("run canceled: %v", ingErr),
			}
		case IsInvalidInputError(ingErr):
			return &types.RunOutcome{
				Status:  types.OutcomeInvalidInput,
				Message: ingErr.Error(),
			}
		case IsPolicyError(ingErr):
			return &types.RunOutcome{
				Status:  types.OutcomeIOError,
				Message: fmt.Sprintf("policy failure: %v", ingErr),
			}
		default:
			return &types.RunOutcome{
				Status:  types.OutcomeIOError,
				Message: ingErr.Error(),
			}
		}
	}

	if flushErr != nil {
		return &types.RunOutcome{
			Status:  types.OutcomeIOError,
			Message: fmt.Sprintf("policy flush failed: %v", flushErr),
		}
	}

	if replacements > 0 {
		return &types.RunOutcome{
			Status:  types.OutcomeLossy,
			Message: fmt.Sprintf("run completed with %d replacement(s)", replacements),
		}
	}

	return &types.RunOutcome{
		Status:  types.OutcomeSuccess,
		Message: "run completed successfully",
	}
}

// ExitCodeFor maps an outcome status to a process exit code.
func ExitCodeFor(status types.OutcomeStatus) int {
	switch status {
	case types.OutcomeSuccess, types.OutcomeLossy:
		return ExitCodeSuccess
	case types.OutcomeInvalidInput:
		return ExitCodeInvalidInput
	default:
		return ExitCodeIOError
	}
}
