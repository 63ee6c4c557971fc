package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"kyc/internal/customer/models"
)

// PostgresStore persists customer records in PostgreSQL. The aggregate is
// stored as a JSONB document with the tenant key and tombstone flag broken
// out into columns for indexing.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the customers table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS customers (
			customer_id     TEXT        NOT NULL,
			organisation_id TEXT        NOT NULL,
			is_deleted      BOOLEAN     NOT NULL DEFAULT FALSE,
			record          JSONB       NOT NULL,
			date_created    TIMESTAMPTZ NOT NULL,
			date_updated    TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (customer_id, organisation_id)
		);
		CREATE INDEX IF NOT EXISTS customers_organisation_idx
			ON customers (organisation_id) WHERE NOT is_deleted;
	`)
	if err != nil {
		return fmt.Errorf("migrate customers: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, customerID, organisationID string) (*models.Customer, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT record FROM customers
		WHERE customer_id = $1 AND organisation_id = $2 AND NOT is_deleted`,
		customerID, organisationID).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return decodeCustomer(record)
}

func (s *PostgresStore) Put(ctx context.Context, customer *models.Customer) error {
	record, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO customers (customer_id, organisation_id, is_deleted, record, date_created, date_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (customer_id, organisation_id) DO UPDATE SET
			is_deleted   = EXCLUDED.is_deleted,
			record       = EXCLUDED.record,
			date_updated = EXCLUDED.date_updated`,
		customer.ID, customer.OrganisationID, customer.IsDeleted,
		record, customer.DateCreated, customer.DateUpdated)
	if err != nil {
		return fmt.Errorf("put customer: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, customerID, organisationID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET is_deleted = TRUE,
		    record     = jsonb_set(record, '{isDeleted}', 'true')
		WHERE customer_id = $1 AND organisation_id = $2 AND NOT is_deleted`,
		customerID, organisationID)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByOrganisation(ctx context.Context, organisationID string) ([]*models.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM customers
		WHERE organisation_id = $1 AND NOT is_deleted
		ORDER BY date_created`,
		organisationID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []*models.Customer
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c, err := decodeCustomer(record)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// decodeCustomer is the single hydration point from storage back into the
// typed aggregate; unknown keys in the stored document are rejected rather
// than silently dropped into the record.
func decodeCustomer(record []byte) (*models.Customer, error) {
	var c models.Customer
	dec := json.NewDecoder(bytes.NewReader(record))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	return &c, nil
}
