package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// maxOutput bounds what a recognizer may print; real payloads are far smaller.
const maxOutput = 64 << 20

// ErrOutputTooLarge is returned when the OCR command exceeds maxOutput on stdout.
var ErrOutputTooLarge = errors.New("ocr output too large")

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

type cappedBuffer struct {
	bytes.Buffer
	limit    int
	overflow bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.Len()+len(p) > b.limit {
		b.overflow = true
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

func (execRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	logger.Debug("starting recognizer", "cmd", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	// reap the process even if a child keeps its pipes open
	cmd.WaitDelay = 5 * time.Second
	out := &cappedBuffer{limit: maxOutput}
	errb := &cappedBuffer{limit: 8 << 10}
	cmd.Stdout = out
	cmd.Stderr = errb

	err := cmd.Run()
	if err == nil && out.overflow {
		err = fmt.Errorf("%w: more than %d bytes", ErrOutputTooLarge, maxOutput)
	}

	attrs := []any{
		"cmd", name,
		"duration_ms", time.Since(start).Milliseconds(),
		"stdout_bytes", out.Len(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			attrs = append(attrs, "exit_code", exitErr.ExitCode())
		}
		logger.Error("recognizer failed", append(attrs, "error", err, "stderr", errb.String())...)
	} else {
		logger.Debug("recognizer finished", attrs...)
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
