package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"
)

//go:generate mockgen -destination=../../mocks/mock_store.go -package=mocks . Store

// DeliveryRecord is one journaled callback outcome. A lot that exhausts its
// delivery attempts is journaled with Delivered=false; the record is the
// durable trace of what was sent where after the tracker entry expires.
type DeliveryRecord struct {
	ID           int64     `db:"id"`
	BatchID      string    `db:"batch_id"`
	LotID        string    `db:"lot_id"`
	Status       string    `db:"status"`
	ErrorKind    string    `db:"error_kind"`
	ErrorMessage string    `db:"error_message"`
	Webhook      string    `db:"webhook"`
	Attempts     int       `db:"attempts"`
	Delivered    bool      `db:"delivered"`
	CreatedAt    time.Time `db:"created_at"`
}

// Store defines the interface for the delivery journal.
type Store interface {
	// RecordDelivery appends one callback outcome.
	RecordDelivery(ctx context.Context, rec *DeliveryRecord) error

	// ListBatch returns all journaled outcomes for a batch in insertion order.
	ListBatch(ctx context.Context, batchID string) ([]DeliveryRecord, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a new Store backed by Postgres.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) RecordDelivery(ctx context.Context, rec *DeliveryRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT INTO deliveries (batch_id, lot_id, status, error_kind, error_message, webhook, attempts, delivered, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		rec.BatchID, rec.LotID, rec.Status, rec.ErrorKind, rec.ErrorMessage,
		rec.Webhook, rec.Attempts, rec.Delivered, createdAt)
	if err != nil {
		return fmt.Errorf("failed to record delivery for lot %s: %w", rec.LotID, err)
	}
	return nil
}

func (s *postgresStore) ListBatch(ctx context.Context, batchID string) ([]DeliveryRecord, error) {
	query := `
		SELECT id, batch_id, lot_id, status, error_kind, error_message, webhook, attempts, delivered, created_at
		FROM deliveries
		WHERE batch_id = $1
		ORDER BY created_at, id`

	var recs []DeliveryRecord
	if err := s.db.SelectContext(ctx, &recs, query, batchID); err != nil {
		return nil, fmt.Errorf("failed to list deliveries for batch %s: %w", batchID, err)
	}
	return recs, nil
}
