package source

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// TermuxSource reads messages through the termux-api `termux-sms-list` command.
type TermuxSource struct {
	command string
	timeout time.Duration
	loc     *time.Location
	run     Runner
	logger  *zap.Logger
}

func NewTermuxSource(command string, timeout time.Duration, loc *time.Location, logger *zap.Logger) *TermuxSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &TermuxSource{
		command: command,
		timeout: timeout,
		loc:     loc,
		run:     execRunner,
		logger:  logger,
	}
}

// WithRunner swaps the command runner; used by tests.
func (s *TermuxSource) WithRunner(r Runner) *TermuxSource {
	if r != nil {
		s.run = r
	}
	return s
}

func (s *TermuxSource) Fetch(ctx context.Context, limit int) (Snapshot, error) {
	if limit <= 0 {
		return Snapshot{}, errors.New("limit must be > 0")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.run(ctx, s.command, "-l", strconv.Itoa(limit))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return Snapshot{}, fmt.Errorf("%w: %s: %v stderr=%q", ErrSourceFetch, s.command, err, truncate(string(exitErr.Stderr), 200))
		}
		return Snapshot{}, fmt.Errorf("%w: %s: %v", ErrSourceFetch, s.command, err)
	}

	snap, err := Decode(out, s.loc)
	if err != nil {
		return Snapshot{}, err
	}
	for _, rej := range snap.Rejected {
		s.logger.Warn("skipping message with invalid timestamp", zap.Error(rej))
	}
	s.logger.Debug("fetched messages",
		zap.Int("count", len(snap.Messages)),
		zap.Int("rejected", len(snap.Rejected)),
	)
	return snap, nil
}
