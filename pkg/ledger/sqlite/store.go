// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlite implements the ledger.Store interface on SQLite using the
// pure-Go modernc driver with goose-managed migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/wardensync/wardensync/pkg/ledger"
)

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

// Open opens (creating if needed) the ledger database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	dsn := "file:" + url.PathEscape(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}
	// The modernc driver serializes access per connection; a single
	// connection avoids SQLITE_BUSY between concurrent statements.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging ledger database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const recordColumns = `namespace, secret_name, source_item_id, source_item_name,
			fingerprint, last_synced, status, last_error`

// Get retrieves the record for (namespace, name), or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, namespace, name string) (*ledger.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM managed_secrets WHERE namespace = ? AND secret_name = ?`,
		namespace, name,
	)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Upsert inserts or replaces the record keyed on (Namespace, SecretName).
func (s *Store) Upsert(ctx context.Context, record ledger.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO managed_secrets (
			namespace, secret_name, source_item_id, source_item_name,
			fingerprint, last_synced, status, last_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace, secret_name) DO UPDATE SET
			source_item_id = excluded.source_item_id,
			source_item_name = excluded.source_item_name,
			fingerprint = excluded.fingerprint,
			last_synced = excluded.last_synced,
			status = excluded.status,
			last_error = excluded.last_error`,
		record.Namespace,
		record.SecretName,
		record.SourceItemID,
		record.SourceItemName,
		record.Fingerprint,
		record.LastSynced.UTC().Format(time.RFC3339Nano),
		string(record.Status),
		record.LastError,
	)
	if err != nil {
		return fmt.Errorf("upserting ledger record %s/%s: %w", record.Namespace, record.SecretName, err)
	}
	return nil
}

// Delete removes the record for (namespace, name). Absent records are ignored.
func (s *Store) Delete(ctx context.Context, namespace, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM managed_secrets WHERE namespace = ? AND secret_name = ?`,
		namespace, name,
	)
	if err != nil {
		return fmt.Errorf("deleting ledger record %s/%s: %w", namespace, name, err)
	}
	return nil
}

// ListAll returns every record, ordered by namespace then secret name.
func (s *Store) ListAll(ctx context.Context) ([]ledger.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM managed_secrets ORDER BY namespace, secret_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ledger records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ledger.Record
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger rows: %w", err)
	}
	return records, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*ledger.Record, error) {
	var record ledger.Record
	var status, lastSynced string

	err := row.Scan(
		&record.Namespace,
		&record.SecretName,
		&record.SourceItemID,
		&record.SourceItemName,
		&record.Fingerprint,
		&lastSynced,
		&status,
		&record.LastError,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ledger record: %w", err)
	}

	record.Status = ledger.Status(status)
	record.LastSynced, err = time.Parse(time.RFC3339Nano, lastSynced)
	if err != nil {
		return nil, fmt.Errorf("parsing last_synced timestamp: %w", err)
	}
	return &record, nil
}
