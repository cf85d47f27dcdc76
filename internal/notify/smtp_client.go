package notify

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

const mailSubject = "SMS matched filter"

// SMTPClient mails the notification text; recipients are email addresses.
type SMTPClient struct {
	addr    string
	from    string
	auth    sasl.Client
	timeout time.Duration
	now     func() time.Time
}

// NewSMTPClient uses PLAIN auth when username is set.
func NewSMTPClient(addr, from, username, password string, timeout time.Duration) *SMTPClient {
	var auth sasl.Client
	if username != "" {
		auth = sasl.NewPlainClient("", username, password)
	}
	return &SMTPClient{
		addr:    addr,
		from:    from,
		auth:    auth,
		timeout: timeout,
		now:     time.Now,
	}
}

func (c *SMTPClient) Name() string { return "smtp" }

// Send runs the SMTP exchange in the background so the caller's deadline is
// honoured; an abandoned exchange is bounded by the server's own timeouts.
func (c *SMTPClient) Send(ctx context.Context, recipient, text string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	msg := c.buildMessage(recipient, text)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(c.addr, c.auth, c.from, []string{recipient}, strings.NewReader(msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDelivery, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrDelivery, ctx.Err())
	}
}

func (c *SMTPClient) buildMessage(to, text string) string {
	var b strings.Builder
	b.WriteString("From: " + c.from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", mailSubject) + "\r\n")
	b.WriteString("Date: " + c.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.String()
}
