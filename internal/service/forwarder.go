package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeventeLantos/sms-forwarder/internal/filter"
	"github.com/LeventeLantos/sms-forwarder/internal/model"
	"github.com/LeventeLantos/sms-forwarder/internal/source"
	"github.com/LeventeLantos/sms-forwarder/internal/watermark"
)

// Options are fixed for the lifetime of a Forwarder.
type Options struct {
	// FetchLimit is how many recent messages are listed per cycle. It must
	// exceed the number of messages expected to arrive between two polls,
	// otherwise older unseen messages fall out of the window.
	FetchLimit int
	DeviceName string
	Filters    filter.FilterSet
	Recipients []string
}

// Forwarder runs the poll cycle: fetch, sort, skip what the watermark
// covers, forward matches, persist the new watermark.
type Forwarder struct {
	src        source.Source
	store      watermark.Store
	dispatcher *Dispatcher
	opts       Options
	logger     *zap.Logger
	now        func() time.Time

	// cycle serialises RunCycle.
	cycle sync.Mutex

	mu           sync.RWMutex
	watermark    time.Time
	hasWatermark bool
	unsaved      bool
	last         *model.CycleReport
}

// NewForwarder loads the persisted watermark once.
func NewForwarder(
	ctx context.Context,
	src source.Source,
	store watermark.Store,
	dispatcher *Dispatcher,
	opts Options,
	logger *zap.Logger,
) (*Forwarder, error) {
	if src == nil || store == nil || dispatcher == nil {
		return nil, errors.New("source, store and dispatcher are required")
	}
	if opts.FetchLimit <= 0 {
		return nil, errors.New("fetch limit must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Forwarder{
		src:        src,
		store:      store,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}

	f.watermark, f.hasWatermark = store.Load(ctx)
	if f.hasWatermark {
		logger.Info("loaded watermark", zap.Time("watermark", f.watermark))
	} else {
		logger.Info("no watermark stored, every matching message will be forwarded")
	}
	return f, nil
}

// Tick adapts RunCycle to the scheduler callback.
func (f *Forwarder) Tick(ctx context.Context) {
	f.RunCycle(ctx)
}

// RunCycle performs one pass. Once the fetch has succeeded the cycle runs to
// completion even if ctx is cancelled, so a shutdown never leaves
// delivered-but-unpersisted messages behind.
func (f *Forwarder) RunCycle(ctx context.Context) (report model.CycleReport) {
	f.cycle.Lock()
	defer f.cycle.Unlock()

	report = model.CycleReport{
		ID:        uuid.NewString(),
		StartedAt: f.now(),
	}
	log := f.logger.With(zap.String("cycle", report.ID))

	wm, has := f.Watermark()
	if has {
		report.WatermarkBefore = timePtr(wm)
	}

	defer func() {
		report.FinishedAt = f.now()
		if cur, ok := f.Watermark(); ok {
			report.WatermarkAfter = timePtr(cur)
		}
		f.mu.Lock()
		r := report
		f.last = &r
		f.mu.Unlock()

		log.Info("cycle finished",
			zap.Int("fetched", report.Fetched),
			zap.Int("invalid", report.Invalid),
			zap.Int("skipped", report.Skipped),
			zap.Int("matched", report.Matched),
			zap.Int("delivered", report.Delivered),
			zap.Int("failed", report.Failed),
			zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
		)
	}()

	if err := ctx.Err(); err != nil {
		report.Error = err.Error()
		return report
	}

	snap, err := f.src.Fetch(ctx, f.opts.FetchLimit)
	if err != nil {
		log.Warn("cycle aborted: fetch failed", zap.Error(err))
		report.Error = err.Error()
		return report
	}
	ctx = context.WithoutCancel(ctx)

	report.Fetched = len(snap.Messages)
	report.Invalid = len(snap.Rejected)

	msgs := slices.Clone(snap.Messages)
	slices.SortStableFunc(msgs, func(a, b model.Message) int {
		return a.ReceivedAt.Compare(b.ReceivedAt)
	})

	candidate, advanced := wm, false
	for _, m := range msgs {
		if has && !m.ReceivedAt.After(wm) {
			report.Skipped++
			continue
		}
		if !filter.Matches(m.Body, f.opts.Filters) {
			continue
		}

		report.Matched++
		log.Info("forwarding message",
			zap.String("sender", m.Sender),
			zap.Time("received_at", m.ReceivedAt),
		)

		text := FormatNotification(f.opts.DeviceName, m)
		for _, res := range f.dispatcher.Notify(ctx, f.opts.Recipients, text) {
			if res.Success {
				report.Delivered++
			} else {
				report.Failed++
			}
		}

		if !advanced || m.ReceivedAt.After(candidate) {
			candidate = m.ReceivedAt
			advanced = true
		}
	}

	if advanced {
		f.mu.Lock()
		f.watermark, f.hasWatermark, f.unsaved = candidate, true, true
		f.mu.Unlock()
	}

	if err := f.persist(ctx); err != nil {
		log.Error("failed to persist watermark, will retry next cycle", zap.Error(err))
		report.Error = err.Error()
	}
	return report
}

// persist writes the in-memory watermark if the last write has not landed.
func (f *Forwarder) persist(ctx context.Context) error {
	f.mu.RLock()
	ts, dirty := f.watermark, f.unsaved
	f.mu.RUnlock()
	if !dirty {
		return nil
	}

	if err := f.store.Save(ctx, ts); err != nil {
		return err
	}

	f.mu.Lock()
	if f.watermark.Equal(ts) {
		f.unsaved = false
	}
	f.mu.Unlock()
	return nil
}

// Watermark returns the in-memory watermark.
func (f *Forwarder) Watermark() (time.Time, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.watermark, f.hasWatermark
}

func (f *Forwarder) LastReport() (model.CycleReport, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.last == nil {
		return model.CycleReport{}, false
	}
	return *f.last, true
}

func timePtr(t time.Time) *time.Time { return &t }
