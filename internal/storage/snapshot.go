package storage

import (
	"context"
	"sync"

	"github.com/adlens/insight/internal/models"
)

// SnapshotStore persists the last successfully fetched raw collections so a
// restart with the upstream down can still serve a stale dashboard.
type SnapshotStore interface {
	SaveReports(ctx context.Context, records []models.ReportRecord) error
	LoadReports(ctx context.Context) ([]models.ReportRecord, error)
	SaveClients(ctx context.Context, clients []models.Client) error
	LoadClients(ctx context.Context) ([]models.Client, error)
}

// InMemorySnapshotStore keeps snapshots in process memory. Used when
// PostgreSQL is unavailable, and in tests.
type InMemorySnapshotStore struct {
	mu      sync.RWMutex
	reports []models.ReportRecord
	clients []models.Client
}

// NewInMemorySnapshotStore creates an empty in-memory snapshot store.
func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{}
}

func (s *InMemorySnapshotStore) SaveReports(ctx context.Context, records []models.ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append([]models.ReportRecord(nil), records...)
	return nil
}

func (s *InMemorySnapshotStore) LoadReports(ctx context.Context) ([]models.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ReportRecord(nil), s.reports...), nil
}

func (s *InMemorySnapshotStore) SaveClients(ctx context.Context, clients []models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append([]models.Client(nil), clients...)
	return nil
}

func (s *InMemorySnapshotStore) LoadClients(ctx context.Context) ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Client(nil), s.clients...), nil
}
