package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var credentialPrompts = map[string]string{
	NotifierTelegram: "Telegram bot token",
	NotifierWebhook:  "Webhook bearer token",
	NotifierLark:     "Lark app secret",
	NotifierSMTP:     "SMTP password",
}

// RunSetup asks for filters, credential and recipients on in, writes them
// to path and returns what was saved. Empty answers are asked again.
func RunSetup(in io.Reader, out io.Writer, path, notifier string) (*Settings, error) {
	sc := bufio.NewScanner(in)

	ask := func(prompt string) (string, error) {
		for {
			fmt.Fprintf(out, "%s: ", prompt)
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return "", err
				}
				return "", io.ErrUnexpectedEOF
			}
			if answer := strings.TrimSpace(sc.Text()); answer != "" {
				return answer, nil
			}
			fmt.Fprintln(out, "a value is required")
		}
	}
	askList := func(prompt string) ([]string, error) {
		for {
			answer, err := ask(prompt)
			if err != nil {
				return nil, err
			}
			if list := SplitList(answer); len(list) > 0 {
				return list, nil
			}
			fmt.Fprintln(out, "at least one value is required")
		}
	}

	fmt.Fprintln(out, "sms-forwarder setup")

	var s Settings
	var err error
	if s.Filters, err = askList("Filter keywords (comma separated)"); err != nil {
		return nil, fmt.Errorf("setup aborted: %w", err)
	}

	credPrompt, ok := credentialPrompts[notifier]
	if !ok {
		credPrompt = "Credential"
	}
	if s.Credential, err = ask(credPrompt); err != nil {
		return nil, fmt.Errorf("setup aborted: %w", err)
	}
	if s.Recipients, err = askList("Recipients (comma separated)"); err != nil {
		return nil, fmt.Errorf("setup aborted: %w", err)
	}

	if err := SaveSettings(path, s); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "settings saved to %s\n", path)
	return &s, nil
}

