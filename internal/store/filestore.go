package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chodewars-server/internal/entity"
	"chodewars-server/internal/shared/errors"
)

const recordExt = ".json"

// FileStore keeps one JSON document per entity in a single directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: logger.With("component", "store", "backend", "file", "dir", dir),
	}
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, url.PathEscape(id)+recordExt)
}

func (s *FileStore) Exists(ctx context.Context) (bool, error) {
	info, err := os.Stat(s.dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat store directory: %w", err)
	}
	return info.IsDir(), nil
}

func (s *FileStore) Initialize(ctx context.Context) error {
	exists, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		s.logger.Info("Creating store directory")
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return errors.WrapWriteFailure("failed to create store directory", err)
		}
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read store directory: %w", err)
	}
	if len(entries) == 0 {
		return s.Reset(ctx)
	}
	return nil
}

func (s *FileStore) Reset(ctx context.Context) error {
	s.logger.Info("Resetting store", "operation", "reset")

	if err := os.RemoveAll(s.dir); err != nil {
		return errors.WrapWriteFailure("failed to remove store directory", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.WrapWriteFailure("failed to create store directory", err)
	}
	return nil
}

// Save writes the record to a temporary file and renames it into place so a
// reader never observes a partial record.
func (s *FileStore) Save(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	data, err := entity.Encode(e)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return nil, errors.WrapWriteFailure(fmt.Sprintf("failed to save %s", e.ID), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, errors.WrapWriteFailure(fmt.Sprintf("failed to save %s", e.ID), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, errors.WrapWriteFailure(fmt.Sprintf("failed to save %s", e.ID), err)
	}
	if err := os.Rename(tmpName, s.path(e.ID)); err != nil {
		os.Remove(tmpName)
		return nil, errors.WrapWriteFailure(fmt.Sprintf("failed to save %s", e.ID), err)
	}

	return e, nil
}

func (s *FileStore) Load(ctx context.Context, id string) (*entity.Entity, error) {
	if id == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}

	return decodeRecord(s.logger, id, data), nil
}

func (s *FileStore) LoadByName(ctx context.Context, name string) (*entity.Entity, error) {
	return findByName(ctx, s, name)
}

// Scan visits records in file name order.
func (s *FileStore) Scan(ctx context.Context, fn func(*entity.Entity) error) error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read record %s: %w", name, err)
		}

		e := decodeRecord(s.logger, name, data)
		if e == nil {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
