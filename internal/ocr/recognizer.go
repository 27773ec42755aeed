package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Recognizer turns a raw document (PDF or image) into an OCR result payload.
type Recognizer interface {
	Recognize(ctx context.Context, filename string, data []byte) ([]byte, error)
	Name() string
}

type Config struct {
	Command   string        // binary name or absolute path; required
	Args      []string      // passed before the input path
	Timeout   time.Duration // 0 = no limit
	TempDir   string        // where inputs are staged; "" = os.TempDir()
	Processor string        // recorded in payload metadata; defaults to the command name
}

// CommandRecognizer runs an external OCR command that prints the JSON payload on stdout.
type CommandRecognizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewCommandRecognizer(cfg Config, logger *slog.Logger) *CommandRecognizer {
	return NewCommandRecognizerWithRunner(cfg, execRunner{}, logger)
}

func NewCommandRecognizerWithRunner(cfg Config, r Runner, logger *slog.Logger) *CommandRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Processor == "" {
		cfg.Processor = filepath.Base(cfg.Command)
	}
	return &CommandRecognizer{cfg: cfg, runner: r, logger: logger}
}

func (c *CommandRecognizer) Name() string { return c.cfg.Processor }

func (c *CommandRecognizer) Recognize(ctx context.Context, filename string, data []byte) ([]byte, error) {
	if c.cfg.Command == "" {
		return nil, fmt.Errorf("ocr command not configured")
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	tmp, err := os.CreateTemp(c.cfg.TempDir, "ocr-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return nil, fmt.Errorf("stage input: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			c.logger.Warn("failed to remove staged input", "path", tmp.Name(), "error", err)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("stage input: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("stage input: %w", err)
	}

	args := append(append([]string{}, c.cfg.Args...), tmp.Name())
	stdout, stderr, err := c.runner.Run(ctx, c.cfg.Command, c.logger, args...)
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w: %s", filename, err, truncate(strings.TrimSpace(string(stderr)), 512))
	}
	if _, err := Decode(stdout); err != nil {
		return nil, fmt.Errorf("ocr %s: %w", filename, err)
	}
	c.logger.Info("ocr completed", "file", filename, "bytes_in", len(data), "bytes_out", len(stdout))
	return stdout, nil
}
