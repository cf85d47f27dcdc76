package source

import (
	"errors"
	"testing"
	"time"
)

func TestDecode_ParsesTermuxRecords(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"threadid":1,"type":"inbox","read":true,"number":"+36301234567","received":"2026-02-02 18:00:05","body":"Your OTP is 123"},
		{"from":"BANK","received":"2026-02-02T17:59:00Z","body":"Payment done"},
		{"received":"2026-02-02 17:00:00","body":"no sender"}
	]`)

	snap, err := Decode(data, time.UTC)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(snap.Rejected) != 0 {
		t.Fatalf("expected no rejected records, got %v", snap.Rejected)
	}
	if len(snap.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(snap.Messages))
	}

	m := snap.Messages[0]
	if m.Sender != "+36301234567" {
		t.Fatalf("expected sender from number field, got %q", m.Sender)
	}
	if want := time.Date(2026, 2, 2, 18, 0, 5, 0, time.UTC); !m.ReceivedAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, m.ReceivedAt)
	}
	if m.RawReceivedAt != "2026-02-02 18:00:05" {
		t.Fatalf("unexpected raw timestamp %q", m.RawReceivedAt)
	}

	if snap.Messages[1].Sender != "BANK" {
		t.Fatalf("expected from field to win, got %q", snap.Messages[1].Sender)
	}
	if snap.Messages[2].Sender != "Unknown" {
		t.Fatalf("expected Unknown sender default, got %q", snap.Messages[2].Sender)
	}
}

func TestDecode_RejectsBadTimestampIndividually(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"from":"A","received":"yesterday","body":"otp 1"},
		{"from":"B","received":"","body":"otp 2"},
		{"from":"C","received":"2026-02-02 18:00:00","body":"otp 3"}
	]`)

	snap, err := Decode(data, time.UTC)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Sender != "C" {
		t.Fatalf("expected only message C, got %+v", snap.Messages)
	}
	if len(snap.Rejected) != 2 {
		t.Fatalf("expected 2 rejected, got %d", len(snap.Rejected))
	}
	for _, rej := range snap.Rejected {
		if !errors.Is(rej, ErrTimestamp) {
			t.Fatalf("expected ErrTimestamp, got %v", rej)
		}
	}
}

func TestDecode_InvalidJSONIsFetchError(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "not json", `{"body":"x"}`, "termux-api not installed"} {
		_, err := Decode([]byte(in), time.UTC)
		if err == nil {
			t.Fatalf("expected error for %q", in)
		}
		if !errors.Is(err, ErrSourceFetch) {
			t.Fatalf("expected ErrSourceFetch for %q, got %v", in, err)
		}
	}
}

func TestDecode_EmptyArray(t *testing.T) {
	t.Parallel()

	snap, err := Decode([]byte(`[]`), nil)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(snap.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(snap.Messages))
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)

	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2026-02-02T18:00:00Z", time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)},
		{"2026-02-02T18:00:00.5+01:00", time.Date(2026, 2, 2, 17, 0, 0, 500000000, time.UTC)},
		{"2026-02-02 18:00:00", time.Date(2026, 2, 2, 16, 0, 0, 0, time.UTC)},
		{"2026-02-02T18:00:00", time.Date(2026, 2, 2, 16, 0, 0, 0, time.UTC)},
		{"2026-02-02 18:00", time.Date(2026, 2, 2, 16, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.raw, loc)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) error: %v", tc.raw, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}

	if _, err := ParseTimestamp("02/02/2026", loc); !errors.Is(err, ErrTimestamp) {
		t.Fatalf("expected ErrTimestamp, got %v", err)
	}
}
