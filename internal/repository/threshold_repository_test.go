package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

func TestGetThresholdFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThresholdRepository(db)

	rows := sqlmock.NewRows([]string{"id", "case_type_id", "milestone_type_id", "location_type_id", "time"}).
		AddRow(1, 1, int64(models.MilestoneAgentAssignment), nil, 1800)
	mock.ExpectQuery(`SELECT id, case_type_id, milestone_type_id, location_type_id, time`).
		WithArgs(int64(1), int64(models.MilestoneAgentAssignment)).
		WillReturnRows(rows)

	th, err := repo.GetThreshold(context.Background(), 1, models.MilestoneAgentAssignment, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), th.TimeSeconds)
	assert.Nil(t, th.LocationTypeID)
}

func TestGetThresholdNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThresholdRepository(db)

	mock.ExpectQuery(`SELECT id, case_type_id, milestone_type_id, location_type_id, time`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "case_type_id", "milestone_type_id", "location_type_id", "time"}))

	_, err := repo.GetThreshold(context.Background(), 1, models.MilestoneASPAssignment, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetThresholdWithLocation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThresholdRepository(db)

	highway := int64(2)
	rows := sqlmock.NewRows([]string{"id", "case_type_id", "milestone_type_id", "location_type_id", "time"}).
		AddRow(4, 1, int64(models.MilestoneASPAssignment), highway, 900)
	mock.ExpectQuery(`AND location_type_id = \?`).
		WithArgs(int64(1), int64(models.MilestoneASPAssignment), highway).
		WillReturnRows(rows)

	th, err := repo.GetThreshold(context.Background(), 1, models.MilestoneASPAssignment, &highway)
	require.NoError(t, err)
	require.NotNil(t, th.LocationTypeID)
	assert.Equal(t, highway, *th.LocationTypeID)
}

func TestMemoryCaseRepositoryFlagCAS(t *testing.T) {
	activity := &models.Activity{ID: 7}
	c := &models.Case{ID: 1, Activity: activity}
	repo := NewMemoryCaseRepository(c)

	updated, err := repo.SetWarningSent(context.Background(), 7, models.TierInitial)
	require.NoError(t, err)
	assert.True(t, updated)

	// Second transition reports the flag as already claimed.
	updated, err = repo.SetWarningSent(context.Background(), 7, models.TierInitial)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.True(t, activity.DealerAdvanceInitialWarningSent)
}
