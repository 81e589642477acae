package extractors

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecRunner_Success(t *testing.T) {
	r := NewExecRunner(nil)

	res, err := r.Run(context.Background(), "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("expected exit 0, got %d", res.ExitCode)
	}
	if strings.TrimSpace(string(res.Stdout)) != "hello" {
		t.Errorf("unexpected stdout %q", res.Stdout)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	r := NewExecRunner(nil)

	res, err := r.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	if err != nil {
		t.Fatalf("expected exit status in result, got error %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("expected exit 3, got %d", res.ExitCode)
	}
	if !strings.Contains(string(res.Stderr), "oops") {
		t.Errorf("expected stderr captured, got %q", res.Stderr)
	}
}

func TestExecRunner_MissingProgram(t *testing.T) {
	r := NewExecRunner(nil)

	if _, err := r.Run(context.Background(), "lectern-no-such-program"); err == nil {
		t.Fatal("expected start error")
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	r := NewExecRunner(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := r.Run(ctx, "sh", "-c", "sleep 5"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("unexpected %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc...(truncated)" {
		t.Errorf("unexpected %q", got)
	}
}
