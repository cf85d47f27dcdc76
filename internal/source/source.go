package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LeventeLantos/sms-forwarder/internal/model"
)

var (
	// ErrSourceFetch means the adapter output could not be turned into messages.
	ErrSourceFetch = errors.New("source fetch failed")
	// ErrTimestamp marks a single record with an unparseable receive time.
	ErrTimestamp = errors.New("invalid message timestamp")
)

const unknownSender = "Unknown"

// Source returns the most recent messages on the device.
type Source interface {
	Fetch(ctx context.Context, limit int) (Snapshot, error)
}

// Snapshot is one fetched list. Rejected holds per-record errors for entries
// that were dropped (each wraps ErrTimestamp).
type Snapshot struct {
	Messages []model.Message
	Rejected []error
}

type record struct {
	From     string `json:"from"`
	Sender   string `json:"sender"`
	Number   string `json:"number"`
	Body     string `json:"body"`
	Received string `json:"received"`
}

var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// Decode parses a JSON array of {from, body, received} records. Records
// without a valid time are rejected individually; anything that is not a
// JSON array is an ErrSourceFetch.
func Decode(data []byte, loc *time.Location) (Snapshot, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode json: %v body=%q", ErrSourceFetch, err, truncate(string(data), 200))
	}
	if loc == nil {
		loc = time.Local
	}

	snap := Snapshot{Messages: make([]model.Message, 0, len(recs))}
	for i, r := range recs {
		ts, err := ParseTimestamp(r.Received, loc)
		if err != nil {
			snap.Rejected = append(snap.Rejected, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		snap.Messages = append(snap.Messages, model.Message{
			Sender:        senderOf(r),
			Body:          r.Body,
			ReceivedAt:    ts,
			RawReceivedAt: r.Received,
		})
	}
	return snap, nil
}

// ParseTimestamp accepts RFC3339 values and zone-less wall-clock values,
// the latter interpreted in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrTimestamp)
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrTimestamp, raw)
}

func senderOf(r record) string {
	for _, s := range []string{r.From, r.Sender, r.Number} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return unknownSender
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
