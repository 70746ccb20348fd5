package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hessian/ipc"
	"github.com/justapithecus/hessian/runtime"
	"github.com/justapithecus/hessian/types"
)

// twoMessages is int 0 followed by an empty untyped map.
var twoMessages = []byte{0x90, 'M', 'z'}

// newTestApp creates a cli.App with every command wired up and
// ExitErrHandler suppressed so errors are returned instead of calling os.Exit.
func newTestApp(t *testing.T) (*cli.App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	app := cli.NewApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Commands = []*cli.Command{
		DecodeCommand(),
		InspectCommand(),
		IngestCommand(),
		SummaryCommand(),
		VersionCommand("test"),
	}
	app.ExitErrHandler = func(_ *cli.Context, _ error) {} // suppress os.Exit
	return app, &stdout, &stderr
}

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitCoder cli.ExitCoder
	if !errors.As(err, &exitCoder) {
		t.Fatalf("expected cli.ExitCoder, got %T: %v", err, err)
	}
	return exitCoder.ExitCode()
}

func TestDecodeAction_Messages(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	in := writeInput(t, "two.bin", twoMessages)

	if err := app.Run([]string{"hessian", "decode", "--format", "json", in}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	var resp DecodeResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json output: %v\n%s", err, stdout.String())
	}
	if resp.Outcome != "completed" {
		t.Errorf("outcome = %q, want completed", resp.Outcome)
	}
	if resp.Scope != "message" {
		t.Errorf("scope = %q, want message", resp.Scope)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(resp.Messages))
	}
	if resp.Messages[0] != float64(0) {
		t.Errorf("message 0 = %v, want 0", resp.Messages[0])
	}
	m, ok := resp.Messages[1].(map[string]any)
	if !ok || m["kind"] != "map" {
		t.Errorf("message 1 = %v, want a map", resp.Messages[1])
	}
	if resp.Bytes != 3 {
		t.Errorf("bytes = %d, want 3", resp.Bytes)
	}
}

func TestDecodeAction_Events(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	in := writeInput(t, "two.bin", twoMessages)

	if err := app.Run([]string{"hessian", "decode", "--events", "--format", "json", in}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	var rows []EventRow
	if err := json.Unmarshal(stdout.Bytes(), &rows); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	wantTypes := []string{"scalar", "open", "close"}
	if len(rows) != len(wantTypes) {
		t.Fatalf("events = %d, want %d", len(rows), len(wantTypes))
	}
	for i, row := range rows {
		if string(row.Type) != wantTypes[i] {
			t.Errorf("event %d type = %q, want %q", i, row.Type, wantTypes[i])
		}
		if row.Seq != int64(i+1) {
			t.Errorf("event %d seq = %d, want %d", i, row.Seq, i+1)
		}
	}
	if rows[1].Message != 1 {
		t.Errorf("map open message = %d, want 1", rows[1].Message)
	}
}

func TestDecodeAction_TruncatedExitCode(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	in := writeInput(t, "trunc.bin", []byte{'M', 0x91})

	err := app.Run([]string{"hessian", "decode", "--format", "json", in})
	if got := exitCode(t, err); got != runtime.ExitCodeTruncated {
		t.Errorf("exit code = %d, want %d", got, runtime.ExitCodeTruncated)
	}

	// Partial output is still rendered.
	var resp DecodeResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if resp.Outcome != "truncated" {
		t.Errorf("outcome = %q, want truncated", resp.Outcome)
	}
}

func TestDecodeAction_CorruptExitCode(t *testing.T) {
	app, _, _ := newTestApp(t)
	in := writeInput(t, "bad.bin", []byte{0x90, 0x30})

	err := app.Run([]string{"hessian", "decode", "--format", "json", in})
	if got := exitCode(t, err); got != runtime.ExitCodeCorrupt {
		t.Errorf("exit code = %d, want %d", got, runtime.ExitCodeCorrupt)
	}
	if !strings.Contains(err.Error(), "corrupt") {
		t.Errorf("error should name the outcome, got: %v", err)
	}
}

func TestDecodeAction_RejectsTUI(t *testing.T) {
	app, _, _ := newTestApp(t)
	in := writeInput(t, "two.bin", twoMessages)

	err := app.Run([]string{"hessian", "decode", "--tui", in})
	if err == nil || !strings.Contains(err.Error(), "--tui is not supported") {
		t.Errorf("expected --tui rejection, got: %v", err)
	}
}

func TestDecodeAction_SingleInputOnly(t *testing.T) {
	app, _, _ := newTestApp(t)
	a := writeInput(t, "a.bin", twoMessages)
	b := writeInput(t, "b.bin", twoMessages)

	err := app.Run([]string{"hessian", "decode", a, b})
	if err == nil || !strings.Contains(err.Error(), "single input") {
		t.Errorf("expected single input error, got: %v", err)
	}
}

func TestDecodeAction_InvalidScope(t *testing.T) {
	app, _, _ := newTestApp(t)
	in := writeInput(t, "two.bin", twoMessages)

	err := app.Run([]string{"hessian", "decode", "--scope", "galaxy", in})
	if got := exitCode(t, err); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
}

func TestDecodeAction_ConfigProvidesScope(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	in := writeInput(t, "two.bin", twoMessages)
	cfgPath := writeInput(t, "hessian.yaml", []byte("decoder:\n  scope: stream\n"))

	if err := app.Run([]string{"hessian", "decode", "--config", cfgPath, "--format", "json", in}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	var resp DecodeResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if resp.Scope != "stream" {
		t.Errorf("scope = %q, want stream from config", resp.Scope)
	}
}

func TestInspectAction_StaticTree(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	in := writeInput(t, "two.bin", twoMessages)

	if err := app.Run([]string{"hessian", "inspect", "--format", "table", in}); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"2 messages", "message 0", "message 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectAction_JSON(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	in := writeInput(t, "two.bin", twoMessages)

	if err := app.Run([]string{"hessian", "inspect", "--format", "json", in}); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	var resp InspectResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if resp.Messages != 2 || resp.Events != 3 || len(resp.Values) != 2 {
		t.Errorf("got messages=%d events=%d values=%d, want 2/3/2", resp.Messages, resp.Events, len(resp.Values))
	}
}

func TestIngestAction_FilesystemThenSummary(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	in := writeInput(t, "two.bin", twoMessages)
	store := t.TempDir()

	err := app.Run([]string{"hessian", "ingest",
		"--storage-path", store,
		"--session-id", "sess-1",
		"--source", "fixture",
		"--capture",
		in,
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Outcome:     completed") {
		t.Errorf("result summary missing outcome:\n%s", stdout.String())
	}

	stdout.Reset()
	err = app.Run([]string{"hessian", "summary",
		"--storage-path", store,
		"--session-id", "sess-1",
		"--format", "json",
	})
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	var summary types.SessionSummary
	if err := json.Unmarshal(stdout.Bytes(), &summary); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if summary.SessionID != "sess-1" || summary.Source != "fixture" {
		t.Errorf("summary identity = %s/%s, want sess-1/fixture", summary.SessionID, summary.Source)
	}
	if summary.Outcome != types.OutcomeCompleted || summary.Messages != 2 || summary.Events != 3 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestSummaryAction_NotFound(t *testing.T) {
	app, _, _ := newTestApp(t)

	err := app.Run([]string{"hessian", "summary", "--storage-path", t.TempDir(), "--session-id", "missing"})
	if err == nil {
		t.Fatal("expected error for missing summary")
	}
}

func TestIngestAction_EmitFrames(t *testing.T) {
	app, stdout, stderr := newTestApp(t)
	in := writeInput(t, "two.bin", twoMessages)

	err := app.Run([]string{"hessian", "ingest", "--storage-backend", "none", "--emit", in})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	records, err := ipc.ReadRecords(stdout)
	if err != nil {
		t.Fatalf("read frames: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("frames = %d, want 3 events and a summary", len(records))
	}
	for i, rec := range records[:3] {
		if _, ok := rec.(*types.EventRecord); !ok {
			t.Errorf("frame %d = %T, want event record", i, rec)
		}
	}
	if _, ok := records[3].(*types.SessionSummary); !ok {
		t.Errorf("last frame = %T, want summary", records[3])
	}
	// Human output moves to stderr when stdout carries frames.
	if !strings.Contains(stderr.String(), "Session Complete") {
		t.Errorf("stderr missing result summary:\n%s", stderr.String())
	}
}

func TestIngestAction_Report(t *testing.T) {
	app, _, _ := newTestApp(t)
	in := writeInput(t, "trunc.bin", []byte{0x90, 'M', 0x91})
	reportPath := filepath.Join(t.TempDir(), "report.json")

	err := app.Run([]string{"hessian", "ingest",
		"--storage-backend", "none",
		"--report", reportPath,
		"--quiet",
		in,
	})
	if got := exitCode(t, err); got != runtime.ExitCodeTruncated {
		t.Errorf("exit code = %d, want %d", got, runtime.ExitCodeTruncated)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var report runtime.SessionReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid report: %v", err)
	}
	if report.Outcome != types.OutcomeTruncated || report.Messages != 1 {
		t.Errorf("report outcome=%s messages=%d, want truncated/1", report.Outcome, report.Messages)
	}
	if report.ExitCode != runtime.ExitCodeTruncated {
		t.Errorf("report exit code = %d", report.ExitCode)
	}
	if report.Policy == nil || report.Policy.Name != "strict" {
		t.Errorf("report policy = %+v, want strict", report.Policy)
	}
}

func TestIngestAction_BatchDedup(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	a := writeInput(t, "a.bin", twoMessages)
	b := writeInput(t, "b.bin", twoMessages)
	c := writeInput(t, "c.bin", []byte{0x91})

	err := app.Run([]string{"hessian", "ingest",
		"--storage-backend", "none",
		"--dedup",
		"--parallel", "2",
		a, b, c,
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "2 total, 2 completed, 0 failed") {
		t.Errorf("batch summary missing totals:\n%s", out)
	}
	if !strings.Contains(out, "1 deduped") {
		t.Errorf("batch summary missing dedup count:\n%s", out)
	}
}

func TestIngestAction_BatchWorstExitCode(t *testing.T) {
	app, _, _ := newTestApp(t)
	good := writeInput(t, "good.bin", twoMessages)
	bad := writeInput(t, "bad.bin", []byte{0x30})

	err := app.Run([]string{"hessian", "ingest", "--storage-backend", "none", "--quiet", good, bad})
	if got := exitCode(t, err); got != runtime.ExitCodeCorrupt {
		t.Errorf("exit code = %d, want %d", got, runtime.ExitCodeCorrupt)
	}
}

func TestIngestAction_InvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{
			name:        "unknown policy",
			args:        []string{"--policy", "eventual"},
			errContains: "invalid policy config",
		},
		{
			name:        "streaming without triggers",
			args:        []string{"--policy", "streaming"},
			errContains: "--flush-count",
		},
		{
			name:        "unknown backend",
			args:        []string{"--storage-backend", "tape"},
			errContains: "invalid storage config",
		},
		{
			name:        "unknown adapter",
			args:        []string{"--adapter", "carrier-pigeon"},
			errContains: "invalid adapter config",
		},
		{
			name:        "webhook without url",
			args:        []string{"--adapter", "webhook"},
			errContains: "requires a URL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := newTestApp(t)
			in := writeInput(t, "two.bin", twoMessages)

			args := append([]string{"hessian", "ingest"}, tt.args...)
			err := app.Run(append(args, in))
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("expected error containing %q, got: %v", tt.errContains, err)
			}
		})
	}
}

func TestIngestAction_SessionIDNeedsSingleInput(t *testing.T) {
	app, _, _ := newTestApp(t)
	a := writeInput(t, "a.bin", twoMessages)
	b := writeInput(t, "b.bin", twoMessages)

	err := app.Run([]string{"hessian", "ingest", "--session-id", "x", a, b})
	if err == nil || !strings.Contains(err.Error(), "single input") {
		t.Errorf("expected single input error, got: %v", err)
	}
}

func TestValidatePolicyChoice(t *testing.T) {
	tests := []struct {
		name    string
		choice  policyChoice
		wantErr bool
	}{
		{name: "strict", choice: policyChoice{name: "strict"}},
		{name: "noop", choice: policyChoice{name: "noop"}},
		{name: "buffered events", choice: policyChoice{name: "buffered", maxEvents: 10}},
		{name: "buffered bytes", choice: policyChoice{name: "buffered", maxBytes: 1024}},
		{name: "buffered no limits", choice: policyChoice{name: "buffered"}, wantErr: true},
		{name: "streaming count", choice: policyChoice{name: "streaming", flushCount: 5}},
		{name: "streaming messages", choice: policyChoice{name: "streaming", flushMessages: 2}},
		{name: "streaming none", choice: policyChoice{name: "streaming"}, wantErr: true},
		{name: "unknown", choice: policyChoice{name: "lazy"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePolicyChoice(tt.choice)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePolicyChoice() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStorageChoice(t *testing.T) {
	tests := []struct {
		name    string
		choice  storageChoice
		wantErr bool
	}{
		{name: "fs", choice: storageChoice{backend: "fs", path: "/tmp/x"}},
		{name: "none", choice: storageChoice{backend: "none"}},
		{name: "s3 bucket", choice: storageChoice{backend: "s3", path: "bucket/prefix"}},
		{name: "s3 empty", choice: storageChoice{backend: "s3"}, wantErr: true},
		{name: "unknown", choice: storageChoice{backend: "tape"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateStorageChoice(tt.choice)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateStorageChoice() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	got, err := parseHeaders([]string{"X-Team=ingest", "Authorization=Bearer a=b"})
	if err != nil {
		t.Fatalf("parseHeaders: %v", err)
	}
	if got["X-Team"] != "ingest" || got["Authorization"] != "Bearer a=b" {
		t.Errorf("headers = %v", got)
	}
	if _, err := parseHeaders([]string{"novalue"}); err == nil {
		t.Error("expected error for header without =")
	}
}

func TestVersionAction(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	if err := app.Run([]string{"hessian", "version", "--format", "json"}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var resp VersionResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if resp.Version != types.Version || resp.Commit != "test" {
		t.Errorf("version = %+v", resp)
	}
}
