package notify

import (
	"context"
	"errors"
	"net/url"
)

// ErrDelivery wraps every failed delivery attempt.
var ErrDelivery = errors.New("delivery failed")

// Notifier delivers one text to one recipient. A nil error means the
// transport returned an explicit success indicator.
type Notifier interface {
	Name() string
	Send(ctx context.Context, recipient, text string) error
}

// redactURL drops the request URL from transport errors; some APIs carry
// credentials in the path.
func redactURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
