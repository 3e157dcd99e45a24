package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"chodewars-server/internal/entity"
	"chodewars-server/internal/shared/database"
	apperrors "chodewars-server/internal/shared/errors"
)

// SQLStore keeps records in the entities table. The record column holds the
// same JSON document the file backend writes; the other columns index it.
type SQLStore struct {
	db     *database.DB
	logger *slog.Logger
}

func NewSQLStore(db *database.DB, logger *slog.Logger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: logger.With("component", "store", "backend", db.Driver),
	}
}

func (s *SQLStore) Exists(ctx context.Context) (bool, error) {
	var query string
	switch s.db.Driver {
	case database.DriverPostgres:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'entities'"
	default:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'entities'"
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check entities table: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) Initialize(ctx context.Context) error {
	if err := s.db.RunMigrations(ctx, s.logger); err != nil {
		return apperrors.WrapWriteFailure("failed to create entities table", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities").Scan(&n); err != nil {
		return fmt.Errorf("failed to count entities: %w", err)
	}
	if n == 0 {
		return s.Reset(ctx)
	}
	return nil
}

func (s *SQLStore) Reset(ctx context.Context) error {
	s.logger.Info("Resetting store", "operation", "reset")

	if err := s.db.RunMigrations(ctx, s.logger); err != nil {
		return apperrors.WrapWriteFailure("failed to create entities table", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entities"); err != nil {
		return apperrors.WrapWriteFailure("failed to clear entities", err)
	}
	return nil
}

func (s *SQLStore) Save(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	data, err := entity.Encode(e)
	if err != nil {
		return nil, err
	}

	var clusterName sql.NullString
	if e.Kind == entity.KindSector {
		clusterName = sql.NullString{String: e.ClusterName, Valid: true}
	}

	query := s.db.Rebind(`
		INSERT INTO entities (id, name, kind, cluster_name, record, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			cluster_name = excluded.cluster_name,
			record = excluded.record,
			updated_at = CURRENT_TIMESTAMP`)

	if _, err := s.db.ExecContext(ctx, query, e.ID, e.Name, string(e.Kind), clusterName, string(data)); err != nil {
		return nil, apperrors.WrapWriteFailure(fmt.Sprintf("failed to save %s", e.ID), err)
	}
	return e, nil
}

func (s *SQLStore) Load(ctx context.Context, id string) (*entity.Entity, error) {
	if id == "" {
		return nil, nil
	}

	var record string
	err := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT record FROM entities WHERE id = ?"), id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", id, err)
	}

	return decodeRecord(s.logger, id, []byte(record)), nil
}

// LoadByName narrows the scan with the name and cluster_name columns, then
// matches on the decoded record.
func (s *SQLStore) LoadByName(ctx context.Context, name string) (*entity.Entity, error) {
	query := s.db.Rebind(`
		SELECT id, record FROM entities
		WHERE name = ? OR (kind = 'Sector' AND cluster_name || '-' || name = ?)
		ORDER BY id`)

	var found *entity.Entity
	err := s.scanRows(ctx, query, []any{name, name}, func(e *entity.Entity) error {
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

func (s *SQLStore) Scan(ctx context.Context, fn func(*entity.Entity) error) error {
	return s.scanRows(ctx, "SELECT id, record FROM entities ORDER BY id", nil, fn)
}

func (s *SQLStore) scanRows(ctx context.Context, query string, args []any, fn func(*entity.Entity) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	// Collect first so fn may issue queries of its own on a single-connection pool.
	type row struct{ id, record string }
	var records []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.record); err != nil {
			return fmt.Errorf("failed to scan entity row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate entities: %w", err)
	}
	rows.Close()

	for _, r := range records {
		e := decodeRecord(s.logger, r.id, []byte(r.record))
		if e == nil {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
