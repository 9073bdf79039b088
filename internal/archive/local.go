package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// Local writes page snapshots under a base directory.
type Local struct {
	baseDir string
	prefix  string
}

// NewLocal validates the directory is usable and returns a filesystem sink.
func NewLocal(baseDir, prefix string) (*Local, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("archive dir is required")
	}

	info, err := os.Stat(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("create archive dir: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("stat archive dir: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("archive path is not a directory")
	}

	testFile := filepath.Join(baseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("archive dir is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up probe file: %w", err)
	}

	return &Local{baseDir: baseDir, prefix: prefix}, nil
}

// SavePage implements Sink.
func (s *Local) SavePage(_ context.Context, page model.Page, fetchedAt time.Time) error {
	objectName := ObjectName(s.prefix, page.URL, fetchedAt)
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(objectName))

	cleanBase := filepath.Clean(s.baseDir)
	cleanFull := filepath.Clean(fullPath)
	if !strings.HasPrefix(cleanFull, cleanBase+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(fullPath, page.Body, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
