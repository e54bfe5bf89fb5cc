package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const stderrMaxBytes = 4096

// CommandRunner produces the raw sensor text for one poll. Failures are
// reported as empty output.
type CommandRunner interface {
	Run(ctx context.Context) string
}

type commandRunner struct {
	args           []string
	commandString  string
	timeout        time.Duration
	maxOutputBytes int
	logger         *slog.Logger
}

type limitedOutputBuffer struct {
	buf       bytes.Buffer
	maxBytes  int
	truncated bool
}

func (b *limitedOutputBuffer) Write(p []byte) (int, error) {
	if b.maxBytes <= 0 {
		return len(p), nil
	}

	if b.buf.Len() >= b.maxBytes {
		b.truncated = true
		return len(p), nil
	}

	remaining := b.maxBytes - b.buf.Len()
	if len(p) > remaining {
		_, _ = b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}

	_, _ = b.buf.Write(p)
	return len(p), nil
}

func (b *limitedOutputBuffer) String() string {
	return b.buf.String()
}

// NewCommandRunner splits command on whitespace into argv; no shell is
// involved.
func NewCommandRunner(logger *slog.Logger, command string, timeout time.Duration, maxOutputBytes int) (*commandRunner, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("sensors command is empty")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("sensors command timeout must be greater than zero, got %s", timeout)
	}

	return &commandRunner{
		args:           args,
		commandString:  strings.Join(args, " "),
		timeout:        timeout,
		maxOutputBytes: maxOutputBytes,
		logger:         logger,
	}, nil
}

func (runner *commandRunner) Run(ctx context.Context) string {
	output, err := runner.run(ctx)
	if err != nil {
		runner.logger.Warn("Sensors command failed, treating output as empty", "command", runner.commandString, "error", err)
		return ""
	}

	return output
}

func (runner *commandRunner) run(parentCtx context.Context) (string, error) {
	cmdCtx, cancel := context.WithTimeout(parentCtx, runner.timeout)
	defer cancel()

	command := exec.CommandContext(cmdCtx, runner.args[0], runner.args[1:]...)
	output := &limitedOutputBuffer{maxBytes: runner.maxOutputBytes}
	stderr := &limitedOutputBuffer{maxBytes: stderrMaxBytes}
	command.Stdout = output
	command.Stderr = stderr

	err := command.Run()
	if output.truncated {
		runner.logger.Warn("Sensors command output truncated", "command", runner.commandString, "max_bytes", runner.maxOutputBytes)
	}

	if err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("command timed out after %s: %s", runner.timeout, runner.commandString)
		}
		if message := strings.TrimSpace(stderr.String()); message != "" {
			return "", fmt.Errorf("command failed: %s: %w: %s", runner.commandString, err, message)
		}
		return "", fmt.Errorf("command failed: %s: %w", runner.commandString, err)
	}

	return output.String(), nil
}
