package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var ErrSettingsNotFound = errors.New("settings file not found")

// Settings is the forwarding setup persisted between runs.
type Settings struct {
	Filters    []string `mapstructure:"filters"`
	Credential string   `mapstructure:"credential"`
	Recipients []string `mapstructure:"recipients"`
}

func (s Settings) Validate() error {
	var errs []error
	if len(s.Filters) == 0 {
		errs = append(errs, errors.New("at least one filter keyword is required"))
	}
	if strings.TrimSpace(s.Credential) == "" {
		errs = append(errs, errors.New("credential is required"))
	}
	if len(s.Recipients) == 0 {
		errs = append(errs, errors.New("at least one recipient is required"))
	}
	return joinErrors(errs)
}

func newSettingsViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0o600)
	return v
}

// LoadSettings reads and validates the settings file. A missing file
// yields ErrSettingsNotFound.
func LoadSettings(path string) (*Settings, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, path)
	}

	v := newSettingsViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	s := &Settings{
		Filters:    cleanList(v.GetStringSlice("filters")),
		Credential: strings.TrimSpace(v.GetString("credential")),
		Recipients: cleanList(v.GetStringSlice("recipients")),
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return s, nil
}

func SaveSettings(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	v := newSettingsViper(path)
	v.Set("filters", s.Filters)
	v.Set("credential", s.Credential)
	v.Set("recipients", s.Recipients)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	// WriteConfigAs keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("chmod settings %s: %w", path, err)
	}
	return nil
}

// ResetSettings removes the settings file so the next start prompts again.
func ResetSettings(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove settings %s: %w", path, err)
	}
	return nil
}

// SplitList splits a comma separated answer into trimmed, non-empty items.
func SplitList(raw string) []string {
	return cleanList(strings.Split(raw, ","))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
