package sla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/repository"
)

// ErrThresholdNotConfigured means no threshold row matches the lookup triple.
// Callers must abort that milestone's evaluation and surface the failure,
// never silently skip it.
var ErrThresholdNotConfigured = errors.New("sla threshold not configured")

// ThresholdCache is the read-through cache in front of the threshold store.
// Implemented by cache.ThresholdCache; a nil cache always misses.
type ThresholdCache interface {
	Get(ctx context.Context, caseTypeID int64, milestone models.MilestoneType, locationTypeID *int64) (*models.SlaThreshold, bool)
	Set(ctx context.Context, t *models.SlaThreshold)
}

// Resolver looks up the applicable deadline for a (case type, milestone,
// optional location type) triple.
type Resolver struct {
	store repository.ThresholdStore
	cache ThresholdCache
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(store repository.ThresholdStore, cache ThresholdCache) *Resolver {
	return &Resolver{store: store, cache: cache}
}

// Resolve returns the configured duration for the triple.
func (r *Resolver) Resolve(ctx context.Context, caseTypeID int64, milestone models.MilestoneType, locationTypeID *int64) (time.Duration, error) {
	if r.cache != nil {
		if t, ok := r.cache.Get(ctx, caseTypeID, milestone, locationTypeID); ok {
			return t.Duration(), nil
		}
	}

	t, err := r.store.GetThreshold(ctx, caseTypeID, milestone, locationTypeID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("%w: case type %d, milestone %q", ErrThresholdNotConfigured, caseTypeID, milestone)
	}
	if err != nil {
		return 0, err
	}

	if r.cache != nil {
		r.cache.Set(ctx, t)
	}
	return t.Duration(), nil
}

// ResolveTiers loads the three dealer-advance ladder thresholds for the case
// type. The ladder does not vary by breakdown location.
func (r *Resolver) ResolveTiers(ctx context.Context, caseTypeID int64) (TierThresholds, error) {
	var tiers TierThresholds
	var err error

	if tiers.Initial, err = r.Resolve(ctx, caseTypeID, models.MilestoneDealerAdvanceInitialWarning, nil); err != nil {
		return tiers, err
	}
	if tiers.Final, err = r.Resolve(ctx, caseTypeID, models.MilestoneDealerAdvancePayment, nil); err != nil {
		return tiers, err
	}
	if tiers.Escalation, err = r.Resolve(ctx, caseTypeID, models.MilestoneDealerAdvanceEscalation, nil); err != nil {
		return tiers, err
	}
	return tiers, nil
}

// Warm pre-loads every configured threshold into the cache. Run periodically
// by the scheduler so evaluation cycles mostly hit Redis.
func (r *Resolver) Warm(ctx context.Context) (int, error) {
	if r.cache == nil {
		return 0, nil
	}
	thresholds, err := r.store.ListThresholds(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to warm threshold cache: %w", err)
	}
	for i := range thresholds {
		r.cache.Set(ctx, &thresholds[i])
	}
	return len(thresholds), nil
}
