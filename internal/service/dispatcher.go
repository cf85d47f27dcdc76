package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeventeLantos/sms-forwarder/internal/model"
	"github.com/LeventeLantos/sms-forwarder/internal/notify"
)

// Dispatcher sends one text to every recipient. Attempts are independent:
// a failing recipient never stops the others and nothing is retried.
type Dispatcher struct {
	notifier    notify.Notifier
	concurrency int
	logger      *zap.Logger
}

func NewDispatcher(n notify.Notifier, concurrency int, logger *zap.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		notifier:    n,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Notify returns one result per recipient, in recipient order.
func (d *Dispatcher) Notify(ctx context.Context, recipients []string, text string) []model.NotificationResult {
	results := make([]model.NotificationResult, len(recipients))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, r := range recipients {
		g.Go(func() error {
			results[i] = d.deliver(ctx, r, text)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Dispatcher) deliver(ctx context.Context, recipient, text string) (res model.NotificationResult) {
	res.Recipient = recipient
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Detail = fmt.Sprintf("panic: %v", r)
			d.logger.Error("notifier panic recovered",
				zap.String("notifier", d.notifier.Name()),
				zap.String("recipient", recipient),
				zap.Any("panic", r),
			)
		}
	}()

	if err := d.notifier.Send(ctx, recipient, text); err != nil {
		res.Detail = err.Error()
		d.logger.Warn("notification failed",
			zap.String("notifier", d.notifier.Name()),
			zap.String("recipient", recipient),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return res
	}

	res.Success = true
	res.Detail = "delivered"
	d.logger.Info("notification sent",
		zap.String("notifier", d.notifier.Name()),
		zap.String("recipient", recipient),
		zap.Duration("took", time.Since(start)),
	)
	return res
}
