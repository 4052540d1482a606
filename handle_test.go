package subproc

import (
	"os/exec"
	"testing"
	"time"
)

func TestProcess_ExitCode(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		wantCode int
	}{
		{"success", []string{"true"}, 0},
		{"failure", []string{"false"}, 1},
		{"exit 42", []string{"sh", "-c", "exit 42"}, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcess(exec.Command(tt.argv[0], tt.argv[1:]...))
			if p.ExitCode() != -1 {
				t.Errorf("ExitCode() = %d before exit, want -1", p.ExitCode())
			}
			if err := p.start(); err != nil {
				t.Fatalf("start: %v", err)
			}
			<-p.Done()
			if p.ExitCode() != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d", p.ExitCode(), tt.wantCode)
			}
			if !p.Exited() {
				t.Error("Exited() = false after Done")
			}
		})
	}
}

func TestProcess_KillReportsSignalExit(t *testing.T) {
	p := newProcess(exec.Command("sleep", "10"))
	if err := p.start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := p.Kill(); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit after SIGKILL")
	}
	if p.ExitCode() != 137 { // 128 + SIGKILL
		t.Errorf("ExitCode() = %d, want 137", p.ExitCode())
	}
}

func TestProcess_TerminateReportsSignalExit(t *testing.T) {
	p := newProcess(exec.Command("sleep", "10"))
	if err := p.start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := p.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit after SIGTERM")
	}
	if p.ExitCode() != 143 { // 128 + SIGTERM
		t.Errorf("ExitCode() = %d, want 143", p.ExitCode())
	}
}

func TestProcess_SignalBeforeStart(t *testing.T) {
	p := newProcess(exec.Command("echo"))
	if err := p.Signal(nil); err == nil {
		t.Error("expected error when signalling a process that never started")
	}
}

func TestProcess_DoneStaysClosed(t *testing.T) {
	p := newProcess(exec.Command("echo", "hello"))
	if err := p.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-p.Done()

	select {
	case <-p.Done():
	default:
		t.Error("Done() should remain closed after exit")
	}
}

func TestProcess_CloseStreamsIdempotent(t *testing.T) {
	p := newProcess(exec.Command("echo"))
	// No streams attached; both calls must be harmless.
	p.closeStreams()
	p.closeStreams()
}
