package extractors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CommandRunner = (*ExecRunner)(nil)

// maxLoggedStderr caps stderr in log lines.
const maxLoggedStderr = 8 << 10

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates a runner. A nil logger selects slog.Default().
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{logger: logger}
}

// Run executes name with args. A non-zero exit is reported in the result;
// start failures and context kills are returned as errors.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*driven.CommandResult, error) {
	start := time.Now()
	r.logger.Debug("running command", "cmd_line", strings.Join(append([]string{name}, args...), " "))

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		r.logger.Warn("command interrupted", "cmd", name, "duration_ms", dur.Milliseconds(), "error", ctxErr)
		return nil, fmt.Errorf("run %s: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		r.logger.Warn("command exited non-zero",
			"cmd", name,
			"exit_code", exitErr.ExitCode(),
			"duration_ms", dur.Milliseconds(),
			"stderr", truncate(errb.String(), maxLoggedStderr),
		)
		return &driven.CommandResult{ExitCode: exitErr.ExitCode(), Stdout: out.Bytes(), Stderr: errb.Bytes()}, nil
	case err != nil:
		r.logger.Error("exec failed", "cmd", name, "error", err)
		return nil, fmt.Errorf("run %s: %w", name, err)
	}

	r.logger.Debug("exec ok",
		"cmd", name,
		"duration_ms", dur.Milliseconds(),
		"stdout_bytes", out.Len(),
		"stderr_bytes", errb.Len(),
	)
	return &driven.CommandResult{ExitCode: 0, Stdout: out.Bytes(), Stderr: errb.Bytes()}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
