package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hessian/runtime"
)

func TestExitErrHandler_NilError(_ *testing.T) {
	exitErrHandler(nil, nil)
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"completed", cli.Exit("", runtime.ExitCodeCompleted), 0, ""},
		{"corrupt", cli.Exit("corrupt: unknown tag 0x30", runtime.ExitCodeCorrupt), 1, "corrupt: unknown tag 0x30"},
		{"truncated", cli.Exit("truncated: stream ended inside a map", runtime.ExitCodeTruncated), 2, "truncated: stream ended inside a map"},
		{"policy failure", cli.Exit("policy_failure: sink rejected", runtime.ExitCodeFailure), 3, "policy_failure: sink rejected"},
		{"joined", errors.Join(errors.New("context"), cli.Exit("inner", 42)), 42, "inner"},
		{"plain error", errors.New("boom"), 1, "Error: boom"},
		{"exit status text", cli.Exit("exit status 2", 2), 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := exitStatus(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}
