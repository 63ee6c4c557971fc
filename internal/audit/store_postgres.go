package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore persists audit entries in PostgreSQL. The change list is a
// JSONB column; everything queryable is broken out.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the audit_trail table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_trail (
			entry_id        TEXT        PRIMARY KEY,
			customer_id     TEXT        NOT NULL,
			organisation_id TEXT        NOT NULL,
			created_by      TEXT        NOT NULL,
			action          TEXT        NOT NULL,
			changes         JSONB       NOT NULL,
			date_created    TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS audit_trail_organisation_idx
			ON audit_trail (organisation_id, date_created);
	`)
	if err != nil {
		return fmt.Errorf("migrate audit trail: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("encode audit changes: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_trail (entry_id, customer_id, organisation_id, created_by, action, changes, date_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.CustomerID, entry.OrganisationID,
		entry.CreatedBy, string(entry.Action), changes, entry.DateCreated)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOrganisation(ctx context.Context, organisationID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_id, customer_id, organisation_id, created_by, action, changes, date_created
		FROM audit_trail
		WHERE organisation_id = $1
		ORDER BY date_created`,
		organisationID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, entryID, organisationID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT entry_id, customer_id, organisation_id, created_by, action, changes, date_created
		FROM audit_trail
		WHERE entry_id = $1 AND organisation_id = $2`,
		entryID, organisationID)
	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func scanEntry(scan func(...any) error) (Entry, error) {
	var (
		entry   Entry
		action  string
		changes []byte
	)
	if err := scan(&entry.ID, &entry.CustomerID, &entry.OrganisationID,
		&entry.CreatedBy, &action, &changes, &entry.DateCreated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, sql.ErrNoRows
		}
		return Entry{}, fmt.Errorf("scan audit entry: %w", err)
	}
	entry.Action = Action(action)
	if err := json.Unmarshal(changes, &entry.Changes); err != nil {
		return Entry{}, fmt.Errorf("decode audit changes: %w", err)
	}
	return entry, nil
}
