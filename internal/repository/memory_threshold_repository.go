package repository

import (
	"context"
	"sync"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// MemoryThresholdRepository is an in-memory ThresholdStore for tests.
type MemoryThresholdRepository struct {
	mu         sync.RWMutex
	thresholds []models.SlaThreshold
	nextID     int64
}

// NewMemoryThresholdRepository creates a new in-memory threshold store.
func NewMemoryThresholdRepository(thresholds ...models.SlaThreshold) *MemoryThresholdRepository {
	r := &MemoryThresholdRepository{nextID: 1}
	for _, t := range thresholds {
		t.ID = r.nextID
		r.nextID++
		r.thresholds = append(r.thresholds, t)
	}
	return r
}

// GetThreshold returns the matching row or ErrNotFound.
func (r *MemoryThresholdRepository) GetThreshold(_ context.Context, caseTypeID int64, milestone models.MilestoneType, locationTypeID *int64) (*models.SlaThreshold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.thresholds {
		t := r.thresholds[i]
		if t.CaseTypeID != caseTypeID || t.MilestoneType != milestone {
			continue
		}
		if !sameLocation(t.LocationTypeID, locationTypeID) {
			continue
		}
		out := t
		return &out, nil
	}
	return nil, ErrNotFound
}

// ListThresholds returns all rows.
func (r *MemoryThresholdRepository) ListThresholds(_ context.Context) ([]models.SlaThreshold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.SlaThreshold(nil), r.thresholds...), nil
}

// UpsertThreshold inserts or replaces the row for the threshold's triple.
func (r *MemoryThresholdRepository) UpsertThreshold(_ context.Context, t *models.SlaThreshold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.thresholds {
		existing := &r.thresholds[i]
		if existing.CaseTypeID == t.CaseTypeID && existing.MilestoneType == t.MilestoneType &&
			sameLocation(existing.LocationTypeID, t.LocationTypeID) {
			existing.TimeSeconds = t.TimeSeconds
			t.ID = existing.ID
			return nil
		}
	}
	t.ID = r.nextID
	r.nextID++
	r.thresholds = append(r.thresholds, *t)
	return nil
}

func sameLocation(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
