package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/remedyops/billcheck/internal/benchmark"
	"github.com/remedyops/billcheck/internal/service"
)

var _ service.SnapshotStore = (*SQLiteStore)(nil)

// SaveSnapshot persists a new snapshot for the configuration key and marks
// it current. The whole operation runs inside one immediate transaction:
// allocate the next monotonic version, insert, flip exactly one is_current
// flag. Two concurrent runs can never claim the same version number.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, configurationKey string, metrics benchmark.Result) (*service.Snapshot, error) {
	if configurationKey == "" {
		return nil, fmt.Errorf("configuration key must not be empty")
	}

	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metrics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	var nextVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE configuration_key = ?`,
		configurationKey).Scan(&nextVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate version: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE snapshots SET is_current = 0 WHERE configuration_key = ? AND is_current = 1`,
		configurationKey); err != nil {
		return nil, fmt.Errorf("failed to clear current flag: %w", err)
	}

	createdAt := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (configuration_key, version, is_current, metrics, created_at, run_id, trigger_source)
		 VALUES (?, ?, 1, ?, ?, ?, ?)`,
		configurationKey, nextVersion, string(metricsJSON), createdAt, metrics.RunID, metrics.Trigger); err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	slog.Info("Saved benchmark snapshot",
		"configuration_key", configurationKey,
		"version", nextVersion)

	return &service.Snapshot{
		ConfigurationKey: configurationKey,
		Version:          nextVersion,
		IsCurrent:        true,
		Metrics:          metrics,
		CreatedAt:        createdAt,
	}, nil
}

// GetCurrent returns the snapshot currently marked current for the key.
func (s *SQLiteStore) GetCurrent(ctx context.Context, configurationKey string) (*service.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT configuration_key, version, is_current, metrics, created_at
		 FROM snapshots WHERE configuration_key = ? AND is_current = 1`,
		configurationKey)
	return scanSnapshot(row)
}

// GetVersion returns one specific snapshot version for the key.
func (s *SQLiteStore) GetVersion(ctx context.Context, configurationKey string, version int) (*service.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT configuration_key, version, is_current, metrics, created_at
		 FROM snapshots WHERE configuration_key = ? AND version = ?`,
		configurationKey, version)
	return scanSnapshot(row)
}

// GetHistory returns up to limit snapshots for the key, newest first. A
// limit of zero or less returns the full history.
func (s *SQLiteStore) GetHistory(ctx context.Context, configurationKey string, limit int) ([]service.Snapshot, error) {
	query := `SELECT configuration_key, version, is_current, metrics, created_at
		FROM snapshots WHERE configuration_key = ? ORDER BY version DESC`
	args := []any{configurationKey}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var history []service.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	if len(history) == 0 {
		return nil, ErrNoSnapshots
	}

	return history, nil
}

// Checkout marks the given version current and every other version of the
// key not current, atomically. Reading current metrics immediately after
// returns exactly that version's stored values.
func (s *SQLiteStore) Checkout(ctx context.Context, configurationKey string, version int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE configuration_key = ? AND version = ?`,
		configurationKey, version).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up version: %w", err)
	}
	if exists == 0 {
		return ErrSnapshotNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE snapshots SET is_current = 0 WHERE configuration_key = ? AND is_current = 1`,
		configurationKey); err != nil {
		return fmt.Errorf("failed to clear current flag: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE snapshots SET is_current = 1 WHERE configuration_key = ? AND version = ?`,
		configurationKey, version); err != nil {
		return fmt.Errorf("failed to set current flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout: %w", err)
	}

	slog.Info("Checked out snapshot",
		"configuration_key", configurationKey,
		"version", version)

	return nil
}

// Compare returns per-metric deltas between two snapshot versions of the
// same configuration key, sorted by metric name.
func (s *SQLiteStore) Compare(ctx context.Context, configurationKey string, versionA, versionB int) ([]service.MetricDelta, error) {
	snapshotA, err := s.GetVersion(ctx, configurationKey, versionA)
	if err != nil {
		return nil, fmt.Errorf("failed to load version %d: %w", versionA, err)
	}
	snapshotB, err := s.GetVersion(ctx, configurationKey, versionB)
	if err != nil {
		return nil, fmt.Errorf("failed to load version %d: %w", versionB, err)
	}

	valuesA := snapshotA.Metrics.MetricValues()
	valuesB := snapshotB.Metrics.MetricValues()

	names := make(map[string]struct{}, len(valuesA)+len(valuesB))
	for name := range valuesA {
		names[name] = struct{}{}
	}
	for name := range valuesB {
		names[name] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	deltas := make([]service.MetricDelta, 0, len(sorted))
	for _, name := range sorted {
		a := valuesA[name]
		b := valuesB[name]
		delta := service.MetricDelta{
			Metric: name,
			ValueA: a,
			ValueB: b,
			Delta:  b - a,
		}
		if a != 0 {
			delta.PercentChange = (b - a) / a * 100
		}
		deltas = append(deltas, delta)
	}

	return deltas, nil
}

func scanSnapshot(row *sql.Row) (*service.Snapshot, error) {
	var snapshot service.Snapshot
	var metricsJSON string
	err := row.Scan(&snapshot.ConfigurationKey, &snapshot.Version, &snapshot.IsCurrent, &metricsJSON, &snapshot.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &snapshot.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot metrics: %w", err)
	}
	return &snapshot, nil
}

func scanSnapshotRow(rows *sql.Rows) (*service.Snapshot, error) {
	var snapshot service.Snapshot
	var metricsJSON string
	if err := rows.Scan(&snapshot.ConfigurationKey, &snapshot.Version, &snapshot.IsCurrent, &metricsJSON, &snapshot.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &snapshot.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot metrics: %w", err)
	}
	return &snapshot, nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("failed to roll back transaction", "error", err)
	}
}
