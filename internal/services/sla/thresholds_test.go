package sla

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/repository"
)

// fakeCache is an in-process ThresholdCache double.
type fakeCache struct {
	mu    sync.Mutex
	items map[string]*models.SlaThreshold
	hits  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[string]*models.SlaThreshold{}}
}

func cacheKey(caseTypeID int64, milestone models.MilestoneType, locationTypeID *int64) string {
	loc := int64(0)
	if locationTypeID != nil {
		loc = *locationTypeID
	}
	return string(rune(caseTypeID)) + ":" + milestone.String() + ":" + string(rune(loc))
}

func (f *fakeCache) Get(_ context.Context, caseTypeID int64, milestone models.MilestoneType, locationTypeID *int64) (*models.SlaThreshold, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[cacheKey(caseTypeID, milestone, locationTypeID)]
	if ok {
		f.hits++
	}
	return t, ok
}

func (f *fakeCache) Set(_ context.Context, t *models.SlaThreshold) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[cacheKey(t.CaseTypeID, t.MilestoneType, t.LocationTypeID)] = t
}

func TestResolverResolve(t *testing.T) {
	store := repository.NewMemoryThresholdRepository(
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneAgentAssignment, TimeSeconds: 1800},
	)
	resolver := NewResolver(store, nil)

	d, err := resolver.Resolve(context.Background(), 1, models.MilestoneAgentAssignment, nil)
	require.NoError(t, err)
	assert.Equal(t, 1800*time.Second, d)
}

func TestResolverNotConfigured(t *testing.T) {
	resolver := NewResolver(repository.NewMemoryThresholdRepository(), nil)

	_, err := resolver.Resolve(context.Background(), 1, models.MilestoneAgentAssignment, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrThresholdNotConfigured)
}

func TestResolverLocationSpecific(t *testing.T) {
	highway := int64(2)
	store := repository.NewMemoryThresholdRepository(
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneASPAssignment, LocationTypeID: &highway, TimeSeconds: 900},
	)
	resolver := NewResolver(store, nil)

	d, err := resolver.Resolve(context.Background(), 1, models.MilestoneASPAssignment, &highway)
	require.NoError(t, err)
	assert.Equal(t, 900*time.Second, d)

	// The location-less row does not exist.
	_, err = resolver.Resolve(context.Background(), 1, models.MilestoneASPAssignment, nil)
	assert.ErrorIs(t, err, ErrThresholdNotConfigured)
}

func TestResolverCacheReadThrough(t *testing.T) {
	store := repository.NewMemoryThresholdRepository(
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneAgentAssignment, TimeSeconds: 1800},
	)
	fc := newFakeCache()
	resolver := NewResolver(store, fc)

	_, err := resolver.Resolve(context.Background(), 1, models.MilestoneAgentAssignment, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, fc.hits)

	_, err = resolver.Resolve(context.Background(), 1, models.MilestoneAgentAssignment, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fc.hits)
}

func TestResolverResolveTiers(t *testing.T) {
	store := repository.NewMemoryThresholdRepository(
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneDealerAdvanceInitialWarning, TimeSeconds: 3600},
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneDealerAdvancePayment, TimeSeconds: 7200},
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneDealerAdvanceEscalation, TimeSeconds: 10800},
	)
	resolver := NewResolver(store, nil)

	tiers, err := resolver.ResolveTiers(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, TierThresholds{
		Initial:    3600 * time.Second,
		Final:      7200 * time.Second,
		Escalation: 10800 * time.Second,
	}, tiers)
}

func TestResolverResolveTiersMissingRow(t *testing.T) {
	store := repository.NewMemoryThresholdRepository(
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneDealerAdvanceInitialWarning, TimeSeconds: 3600},
	)
	resolver := NewResolver(store, nil)

	_, err := resolver.ResolveTiers(context.Background(), 1)
	assert.ErrorIs(t, err, ErrThresholdNotConfigured)
}

func TestResolverWarm(t *testing.T) {
	store := repository.NewMemoryThresholdRepository(
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneAgentAssignment, TimeSeconds: 1800},
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneASPAssignment, TimeSeconds: 2700},
	)
	fc := newFakeCache()
	resolver := NewResolver(store, fc)

	n, err := resolver.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, fc.items, 2)
}
