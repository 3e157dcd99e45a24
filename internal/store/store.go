// Package store persists entities as one self-describing record per id.
//
// Every backend shares the same contract: a missing record loads as nil with
// no error, and a record that cannot be decoded is logged and treated as
// missing so one corrupt record never aborts a scan.
package store

import (
	"context"
	"errors"
	"log/slog"

	"chodewars-server/internal/entity"
)

type Store interface {
	// Exists reports whether the backing location has been initialized.
	Exists(ctx context.Context) (bool, error)
	// Initialize creates the backing location if needed. A location that is
	// present but holds no records is reset.
	Initialize(ctx context.Context) error
	// Reset destroys every record and leaves an empty, initialized store.
	Reset(ctx context.Context) error
	// Save writes e under its id, replacing any previous record.
	Save(ctx context.Context, e *entity.Entity) (*entity.Entity, error)
	// Load returns the entity stored under id, or nil if there is none.
	Load(ctx context.Context, id string) (*entity.Entity, error)
	// LoadByName returns the first entity whose name matches. Sectors also
	// match on "{cluster_name}-{name}".
	LoadByName(ctx context.Context, name string) (*entity.Entity, error)
	// Scan calls fn for every decodable record. Returning an error from fn
	// stops the scan and is returned unchanged.
	Scan(ctx context.Context, fn func(*entity.Entity) error) error
	Close() error
}

var errStopScan = errors.New("stop scan")

// decodeRecord decodes data, logging and discarding malformed records.
func decodeRecord(logger *slog.Logger, key string, data []byte) *entity.Entity {
	e, err := entity.Decode(data)
	if err != nil {
		logger.Warn("Skipping malformed record", "key", key, "error", err)
		return nil
	}
	return e
}

// findByName scans s for the first entity matching name.
func findByName(ctx context.Context, s Store, name string) (*entity.Entity, error) {
	var found *entity.Entity
	err := s.Scan(ctx, func(e *entity.Entity) error {
		if e.MatchesName(name) {
			found = e
			return errStopScan
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return nil, err
	}
	return found, nil
}
