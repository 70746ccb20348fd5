package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/justapithecus/hessian/hessian"
	"github.com/justapithecus/hessian/ipc"
	"github.com/justapithecus/hessian/types"
)

func TestDetermineOutcome(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus types.OutcomeStatus
		wantKind   string
		wantOffset int64
	}{
		{
			name:       "completed",
			err:        nil,
			wantStatus: types.OutcomeCompleted,
		},
		{
			name:       "truncated decode",
			err:        &SessionError{Kind: SessionErrorDecode, Err: &hessian.DecodeError{Kind: hessian.ErrorTruncated, Offset: 7, Msg: "unexpected end of input"}},
			wantStatus: types.OutcomeTruncated,
			wantKind:   "truncated",
			wantOffset: 7,
		},
		{
			name:       "unknown tag",
			err:        &SessionError{Kind: SessionErrorDecode, Err: &hessian.DecodeError{Kind: hessian.ErrorUnknownTag, Offset: 3, Msg: "unknown tag"}},
			wantStatus: types.OutcomeCorrupt,
			wantKind:   "unknown_tag",
			wantOffset: 3,
		},
		{
			name:       "bad ref",
			err:        &SessionError{Kind: SessionErrorDecode, Err: &hessian.DecodeError{Kind: hessian.ErrorBadRef, Offset: 12, Msg: "ref out of range"}},
			wantStatus: types.OutcomeCorrupt,
			wantKind:   "bad_ref",
			wantOffset: 12,
		},
		{
			name:       "partial frame",
			err:        &SessionError{Kind: SessionErrorStream, Err: fmt.Errorf("input error: %w", &ipc.FrameError{Kind: ipc.FrameErrorPartial, Msg: "failed to read payload"})},
			wantStatus: types.OutcomeTruncated,
			wantKind:   "partial",
		},
		{
			name:       "oversized frame",
			err:        &SessionError{Kind: SessionErrorStream, Err: &ipc.FrameError{Kind: ipc.FrameErrorTooLarge, Msg: "too big"}},
			wantStatus: types.OutcomeCorrupt,
			wantKind:   "too_large",
		},
		{
			name:       "read error",
			err:        &SessionError{Kind: SessionErrorStream, Err: errors.New("connection reset")},
			wantStatus: types.OutcomeTruncated,
		},
		{
			name:       "policy failure",
			err:        &SessionError{Kind: SessionErrorPolicy, Err: errors.New("sink down")},
			wantStatus: types.OutcomePolicyFailure,
		},
		{
			name:       "canceled",
			err:        &SessionError{Kind: SessionErrorCanceled, Err: context.Canceled},
			wantStatus: types.OutcomeCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := DetermineOutcome(tt.err)
			if outcome.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", outcome.Status, tt.wantStatus)
			}
			if outcome.Message == "" {
				t.Error("Message must not be empty")
			}

			gotKind := ""
			if outcome.ErrorKind != nil {
				gotKind = *outcome.ErrorKind
			}
			if gotKind != tt.wantKind {
				t.Errorf("ErrorKind = %q, want %q", gotKind, tt.wantKind)
			}

			if tt.wantOffset != 0 {
				if outcome.Offset == nil || *outcome.Offset != tt.wantOffset {
					t.Errorf("Offset = %v, want %d", outcome.Offset, tt.wantOffset)
				}
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		status types.OutcomeStatus
		want   int
	}{
		{types.OutcomeCompleted, ExitCodeCompleted},
		{types.OutcomeCorrupt, ExitCodeCorrupt},
		{types.OutcomeTruncated, ExitCodeTruncated},
		{types.OutcomePolicyFailure, ExitCodeFailure},
		{types.OutcomeCanceled, ExitCodeFailure},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := ExitCodeFor(tt.status); got != tt.want {
				t.Errorf("ExitCodeFor(%s) = %d, want %d", tt.status, got, tt.want)
			}
		})
	}
}

func TestSessionError_Classification(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &SessionError{Kind: SessionErrorPolicy, Err: errors.New("x")})
	if !IsPolicyError(err) {
		t.Error("IsPolicyError should see through wrapping")
	}
	if IsDecodeError(err) || IsStreamError(err) || IsCanceledError(err) {
		t.Error("policy error misclassified")
	}
	if IsPolicyError(errors.New("plain")) {
		t.Error("plain error is not a session error")
	}
}
