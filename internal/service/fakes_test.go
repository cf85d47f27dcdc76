package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LeventeLantos/sms-forwarder/internal/model"
	"github.com/LeventeLantos/sms-forwarder/internal/source"
)

type fakeSource struct {
	mu    sync.Mutex
	snap  source.Snapshot
	err   error
	calls int
	limit int
}

func (f *fakeSource) Fetch(ctx context.Context, limit int) (source.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.limit = limit
	if f.err != nil {
		return source.Snapshot{}, f.err
	}
	return source.Snapshot{
		Messages: append([]model.Message(nil), f.snap.Messages...),
		Rejected: f.snap.Rejected,
	}, nil
}

func (f *fakeSource) set(msgs ...model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = source.Snapshot{Messages: msgs}
	f.err = nil
}

type memStore struct {
	mu      sync.Mutex
	ts      time.Time
	ok      bool
	saves   []time.Time
	failing int
}

func (s *memStore) Load(ctx context.Context) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ts, s.ok
}

func (s *memStore) Save(ctx context.Context, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing > 0 {
		s.failing--
		return errors.New("disk full")
	}
	s.ts, s.ok = ts, true
	s.saves = append(s.saves, ts)
	return nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

type sent struct {
	recipient string
	text      string
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sent
	failFor map[string]error
	panicOn string
}

func (n *fakeNotifier) Name() string { return "fake" }

func (n *fakeNotifier) Send(ctx context.Context, recipient, text string) error {
	if recipient == n.panicOn && n.panicOn != "" {
		panic("boom")
	}
	if err := n.failFor[recipient]; err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{recipient: recipient, text: text})
	return nil
}

func (n *fakeNotifier) deliveries() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.sent...)
}

func msgAt(ts time.Time, sender, body string) model.Message {
	return model.Message{Sender: sender, Body: body, ReceivedAt: ts}
}
