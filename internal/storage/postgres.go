package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/adlens/insight/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSnapshotStore implements SnapshotStore using PostgreSQL. Each save
// replaces the previous snapshot wholesale; the table always holds exactly
// one generation of each collection.
type PostgresSnapshotStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSnapshotStore creates a PostgreSQL-backed snapshot store.
func NewPostgresSnapshotStore(pool *pgxpool.Pool) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{pool: pool}
}

// EnsureSchema creates the snapshot tables if they do not exist.
func (s *PostgresSnapshotStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS report_snapshot (
			date            DATE NOT NULL,
			campaign_name   TEXT NOT NULL,
			campaign_id     BIGINT NOT NULL,
			campaign_status TEXT NOT NULL,
			client_id       TEXT NOT NULL,
			impressions     DOUBLE PRECISION NOT NULL,
			clicks          DOUBLE PRECISION NOT NULL,
			spend           DOUBLE PRECISION NOT NULL,
			sales           DOUBLE PRECISION NOT NULL,
			units_sold      DOUBLE PRECISION NOT NULL,
			error_count     DOUBLE PRECISION NOT NULL
		);
		CREATE TABLE IF NOT EXISTS client_snapshot (
			client_id      TEXT PRIMARY KEY,
			client_name    TEXT NOT NULL,
			last_handshake TIMESTAMPTZ
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure snapshot schema: %w", err)
	}
	return nil
}

// SaveReports replaces the stored report snapshot with records.
func (s *PostgresSnapshotStore) SaveReports(ctx context.Context, records []models.ReportRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE report_snapshot`); err != nil {
		return fmt.Errorf("failed to clear report snapshot: %w", err)
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.Date, r.CampaignName, r.CampaignID, r.CampaignStatus, r.ClientID,
			r.Impressions, r.Clicks, r.Spend, r.Sales, r.UnitsSold, r.ErrorCount,
		})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"report_snapshot"},
		[]string{"date", "campaign_name", "campaign_id", "campaign_status", "client_id",
			"impressions", "clicks", "spend", "sales", "units_sold", "error_count"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to save report snapshot: %w", err)
	}

	return tx.Commit(ctx)
}

// LoadReports returns the stored report snapshot.
func (s *PostgresSnapshotStore) LoadReports(ctx context.Context) ([]models.ReportRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, campaign_name, campaign_id, campaign_status, client_id,
		       impressions, clicks, spend, sales, units_sold, error_count
		FROM report_snapshot
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load report snapshot: %w", err)
	}
	defer rows.Close()

	var records []models.ReportRecord
	for rows.Next() {
		var r models.ReportRecord
		if err := rows.Scan(&r.Date, &r.CampaignName, &r.CampaignID, &r.CampaignStatus, &r.ClientID,
			&r.Impressions, &r.Clicks, &r.Spend, &r.Sales, &r.UnitsSold, &r.ErrorCount); err != nil {
			return nil, err
		}
		r.Date = r.Date.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveClients replaces the stored client snapshot.
func (s *PostgresSnapshotStore) SaveClients(ctx context.Context, clients []models.Client) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE client_snapshot`); err != nil {
		return fmt.Errorf("failed to clear client snapshot: %w", err)
	}

	for _, c := range clients {
		var handshake any
		if !c.LastHandshake.IsZero() {
			handshake = c.LastHandshake.Time
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO client_snapshot (client_id, client_name, last_handshake)
			VALUES ($1, $2, $3)
			ON CONFLICT (client_id) DO UPDATE
			SET client_name = EXCLUDED.client_name, last_handshake = EXCLUDED.last_handshake
		`, c.ClientID, c.ClientName, handshake); err != nil {
			return fmt.Errorf("failed to save client snapshot: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LoadClients returns the stored client snapshot.
func (s *PostgresSnapshotStore) LoadClients(ctx context.Context) ([]models.Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT client_id, client_name, last_handshake FROM client_snapshot
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load client snapshot: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		var handshake *time.Time
		if err := rows.Scan(&c.ClientID, &c.ClientName, &handshake); err != nil {
			return nil, err
		}
		if handshake != nil {
			c.LastHandshake = models.FlexTime{Time: *handshake}
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
