package watermark

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"
)

// FileStore keeps the watermark as one line of text. Writes go to a temp
// file in the same directory which is then renamed over the target.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Load(ctx context.Context) (time.Time, bool) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read watermark file", zap.String("path", s.path), zap.Error(err))
		}
		return time.Time{}, false
	}

	ts, err := Parse(string(b))
	if err != nil {
		s.logger.Warn("ignoring watermark file", zap.String("path", s.path), zap.Error(err))
		return time.Time{}, false
	}
	return ts, true
}

func (s *FileStore) Save(ctx context.Context, ts time.Time) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := renameio.WriteFile(s.path, []byte(Format(ts)+"\n"), 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}
