package watermark

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrCorrupt means a stored value exists but is not a valid timestamp.
	ErrCorrupt = errors.New("watermark value corrupt")
	// ErrPersist wraps any failure to write the watermark.
	ErrPersist = errors.New("watermark persist failed")
)

// Store persists the receive time of the newest forwarded message.
//
// Load never fails: a missing or unreadable value reports ok=false and the
// store logs the cause. Save replaces the value atomically.
type Store interface {
	Load(ctx context.Context) (ts time.Time, ok bool)
	Save(ctx context.Context, ts time.Time) error
}

// Format renders the persisted single-value layout.
func Format(ts time.Time) string {
	return ts.Format(time.RFC3339Nano)
}

func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrCorrupt)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrCorrupt, raw)
	}
	return ts, nil
}
