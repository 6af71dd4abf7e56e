package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestSetWarningSentClaimsFlag(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	mock.ExpectExec(`UPDATE activities SET dealer_advance_initial_warning_sent = 1`).
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.SetWarningSent(context.Background(), 7, models.TierInitial)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetWarningSentAlreadySet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	// The conditional WHERE matches no row when the flag is already set.
	mock.ExpectExec(`UPDATE activities SET dealer_advance_final_warning_sent = 1`).
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.SetWarningSent(context.Background(), 7, models.TierFinal)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestSetWarningSentUnknownTier(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewCaseRepository(db)

	_, err := repo.SetWarningSent(context.Background(), 7, models.EscalationTier("bogus"))
	assert.Error(t, err)
}

func TestAutoCancelCommitsBothUpdates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT a.case_id, c.case_number`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "case_number"}).AddRow(3, "RSA-1003"))
	mock.ExpectExec(`UPDATE activities SET status = 'cancelled'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE cases SET status = 'cancelled'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	notice, err := repo.AutoCancel(context.Background(), 7)
	require.NoError(t, err)
	assert.Contains(t, notice.Subject, "RSA-1003")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoCancelUnknownActivity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT a.case_id, c.case_number`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "case_number"}))
	mock.ExpectRollback()

	_, err := repo.AutoCancel(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
