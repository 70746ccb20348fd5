package runtime

import (
	"errors"
	"fmt"

	"github.com/justapithecus/hessian/hessian"
	"github.com/justapithecus/hessian/ipc"
	"github.com/justapithecus/hessian/types"
)

// Process exit codes for a finished session.
const (
	ExitCodeCompleted = 0 // every byte decoded into complete messages
	ExitCodeCorrupt   = 1 // bytes that can never decode
	ExitCodeTruncated = 2 // input ended inside a message or frame
	ExitCodeFailure   = 3 // delivery failure or cancellation
)

// DetermineOutcome maps the ingestion error to a session outcome.
//
// Mapping:
//   - nil: completed
//   - decode error, truncated kind: truncated
//   - decode error, any other kind: corrupt
//   - partial frame or read error: truncated
//   - oversized frame: corrupt
//   - policy error: policy_failure
//   - canceled: canceled
func DetermineOutcome(err error) *types.Outcome {
	if err == nil {
		return &types.Outcome{
			Status:  types.OutcomeCompleted,
			Message: "stream decoded completely",
		}
	}

	switch {
	case IsCanceledError(err):
		return &types.Outcome{
			Status:  types.OutcomeCanceled,
			Message: fmt.Sprintf("session canceled: %v", err),
		}

	case IsPolicyError(err):
		return &types.Outcome{
			Status:  types.OutcomePolicyFailure,
			Message: err.Error(),
		}

	case IsDecodeError(err):
		return decodeOutcome(err)

	default:
		return streamOutcome(err)
	}
}

func decodeOutcome(err error) *types.Outcome {
	status := types.OutcomeCorrupt
	if hessian.IsTruncated(err) {
		status = types.OutcomeTruncated
	}
	outcome := &types.Outcome{Status: status, Message: err.Error()}

	var decErr *hessian.DecodeError
	if errors.As(err, &decErr) {
		kind := decErr.Kind.String()
		offset := decErr.Offset
		outcome.ErrorKind = &kind
		outcome.Offset = &offset
	}
	return outcome
}

func streamOutcome(err error) *types.Outcome {
	outcome := &types.Outcome{Status: types.OutcomeTruncated, Message: err.Error()}

	var frameErr *ipc.FrameError
	if errors.As(err, &frameErr) {
		kind := frameErr.Kind.String()
		outcome.ErrorKind = &kind
		if frameErr.Kind == ipc.FrameErrorTooLarge {
			outcome.Status = types.OutcomeCorrupt
		}
	}
	return outcome
}

// ExitCodeFor returns the process exit code for an outcome status.
func ExitCodeFor(status types.OutcomeStatus) int {
	switch status {
	case types.OutcomeCompleted:
		return ExitCodeCompleted
	case types.OutcomeCorrupt:
		return ExitCodeCorrupt
	case types.OutcomeTruncated:
		return ExitCodeTruncated
	default:
		return ExitCodeFailure
	}
}
