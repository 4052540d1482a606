package subproc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRun_Echo(t *testing.T) {
	res, err := Run(context.Background(), Command("echo", "hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello\n")
	}
	if res.Stderr != "" {
		t.Errorf("Stderr = %q, want empty", res.Stderr)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestRun_CapturesBothStreams(t *testing.T) {
	res, err := Run(context.Background(), Script("echo out; echo err >&2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "out\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "out\n")
	}
	if res.Stderr != "err\n" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "err\n")
	}
}

func TestRun_ScriptWithoutShell(t *testing.T) {
	req := Request{Script: "echo hello", Capture: true}
	_, err := Run(context.Background(), req)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestRun_EmptyArgv(t *testing.T) {
	_, err := Run(context.Background(), Request{Capture: true})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestRun_NoCapture(t *testing.T) {
	req := Script("echo out; echo err >&2")
	req.Capture = false
	res, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "" || res.Stderr != "" {
		t.Errorf("Stdout/Stderr = %q/%q, want empty without capture", res.Stdout, res.Stderr)
	}
}

func TestRun_CheckRaisesOnNonZeroExit(t *testing.T) {
	_, err := Run(context.Background(), Script("echo oops >&2; exit 7"))
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exitErr.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", exitErr.ExitCode)
	}
	if !strings.Contains(exitErr.Stderr, "oops") {
		t.Errorf("Stderr = %q, want to contain %q", exitErr.Stderr, "oops")
	}
}

func TestRun_NoCheckReturnsNonZeroExit(t *testing.T) {
	req := Script("exit 7")
	req.Check = false
	res, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", res.ExitCode)
	}
}

func TestRun_False(t *testing.T) {
	_, err := Run(context.Background(), Command("false"))
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exitErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", exitErr.ExitCode)
	}

	req := Command("false")
	req.Check = false
	res, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error with Check disabled: %v", err)
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
}

func TestRun_TimeoutSalvagesPartialOutput(t *testing.T) {
	req := Script("echo prefix; sleep 10")
	req.Timeout = 500 * time.Millisecond

	start := time.Now()
	_, err := Run(context.Background(), req)
	elapsed := time.Since(start)

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TimeoutError", err)
	}
	if !strings.Contains(te.Stdout, "prefix") {
		t.Errorf("partial Stdout = %q, want to contain %q", te.Stdout, "prefix")
	}
	if te.Timeout != req.Timeout {
		t.Errorf("Timeout = %s, want %s", te.Timeout, req.Timeout)
	}
	// Kill + grace + reap must not come anywhere near the sleep duration.
	if elapsed > 5*time.Second {
		t.Errorf("run took %s, escalation did not cut the sleep short", elapsed)
	}
}

func TestRun_TimeoutShellScenario(t *testing.T) {
	req := Script("sleep 5 && echo done")
	req.Timeout = 100 * time.Millisecond

	_, err := Run(context.Background(), req)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TimeoutError", err)
	}
	if te.Timeout != 100*time.Millisecond {
		t.Errorf("Timeout = %s, want 100ms", te.Timeout)
	}
	if strings.Contains(te.Stdout, "done") {
		t.Errorf("Stdout = %q, the killed command should never have echoed", te.Stdout)
	}
}

func TestRun_InvalidUTF8Replaced(t *testing.T) {
	res, err := Run(context.Background(), Script(`printf '\377\376hi'`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Stdout, "�") {
		t.Errorf("Stdout = %q, want replacement marker for invalid bytes", res.Stdout)
	}
	if !strings.Contains(res.Stdout, "hi") {
		t.Errorf("Stdout = %q, want valid suffix preserved", res.Stdout)
	}
}

func TestRun_Stdin(t *testing.T) {
	req := Command("cat")
	req.Stdin = []byte("ping")
	res, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "ping" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "ping")
	}
}

func TestRun_EnvOverride(t *testing.T) {
	req := Script("echo $SUBPROC_TEST_VALUE")
	req.Env = map[string]string{"SUBPROC_TEST_VALUE": "woof"}
	res, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "woof\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "woof\n")
	}
	// The result records the overrides, not the merged environment.
	if len(res.Env) != 1 || res.Env["SUBPROC_TEST_VALUE"] != "woof" {
		t.Errorf("Env = %v, want only the caller's overrides", res.Env)
	}
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "workdir")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	req := Command("pwd")
	req.Dir = dir
	res, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Stdout, "workdir") {
		t.Errorf("Stdout = %q, want to contain %q", res.Stdout, "workdir")
	}
	if res.Dir != dir {
		t.Errorf("Dir = %q, want %q", res.Dir, dir)
	}
}

func TestRun_OutputCap(t *testing.T) {
	e := &Executor{MaxOutput: 100}
	res, err := e.Run(context.Background(), Script("dd if=/dev/zero bs=200 count=1 2>/dev/null"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	if len(res.Stdout) > 100 {
		t.Errorf("len(Stdout) = %d, want <= 100", len(res.Stdout))
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	_, err := Run(context.Background(), Command("nonexistent-binary-xyz-123"))
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want *ExecError", err)
	}
	if !strings.Contains(err.Error(), "nonexistent-binary-xyz-123") {
		t.Errorf("error = %q, want to mention the binary name", err)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Run(ctx, Command("sleep", "10"))
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled in the chain", err)
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want *ExecError wrapper", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("run took %s after cancellation, cleanup did not stop the child", elapsed)
	}
}

func TestCleanup_Idempotent(t *testing.T) {
	e := &Executor{}
	p, err := e.launch(Command("sleep", "10"), mergeEnviron(nil))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	e.cleanup(p)
	if !p.Exited() {
		t.Fatal("process still running after cleanup")
	}

	// Second pass and nil handle must both be no-ops.
	e.cleanup(p)
	e.cleanup(nil)

	if p.ExitCode() != 143 { // cleanup terminates with SIGTERM first
		t.Errorf("ExitCode = %d, want 143", p.ExitCode())
	}
}

func TestMergeEnviron_OverridesWin(t *testing.T) {
	t.Setenv("SUBPROC_MERGE_TEST", "original")
	env := mergeEnviron(map[string]string{"SUBPROC_MERGE_TEST": "override"})

	// Later entries win in the child environment.
	last := ""
	for _, kv := range env {
		if strings.HasPrefix(kv, "SUBPROC_MERGE_TEST=") {
			last = kv
		}
	}
	if last != "SUBPROC_MERGE_TEST=override" {
		t.Errorf("last entry = %q, want the override", last)
	}
}
