package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/lankawatch/config"
	errs "github.com/techagentng/lankawatch/errors"
	"github.com/techagentng/lankawatch/models"
)

func newTestRepo(t *testing.T) (ReportRepository, *GormDB) {
	t.Helper()
	gdb, err := Open(&config.Config{
		Env:        "test",
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gdb.Close() })
	return NewReportRepo(gdb), gdb
}

func seedReport(t *testing.T, repo ReportRepository) *models.Report {
	t.Helper()
	report := &models.Report{
		Category:    "pothole",
		Description: "deep pothole",
		Status:      models.StatusUnverified,
		Lat:         1.0,
		Lng:         2.0,
	}
	require.NoError(t, repo.CreateReport(context.Background(), report))
	return report
}

func TestCreateAndFindReport(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first := seedReport(t, repo)
	second := seedReport(t, repo)
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	got, err := repo.FindReport(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "pothole", got.Category)
	assert.Equal(t, models.StatusUnverified, got.Status)
	assert.Equal(t, 0, got.Verifications)
	assert.Equal(t, 0, got.Flags)

	reports, err := repo.ListReports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestFindReportMissing(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.FindReport(context.Background(), 404)
	assert.ErrorIs(t, err, errs.ErrReportNotFound)
}

func TestListReportsEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)

	reports, err := repo.ListReports(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
}

func TestCreateVoteUniqueConstraint(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	report := seedReport(t, repo)

	require.NoError(t, repo.CreateVote(ctx, &models.Vote{UserID: "alice", ReportID: report.ID}))

	// Inserting the same pair again bypasses the lookup and hits the index.
	err := repo.CreateVote(ctx, &models.Vote{UserID: "alice", ReportID: report.ID})
	assert.ErrorIs(t, err, errs.ErrAlreadyVoted)

	require.NoError(t, repo.CreateVote(ctx, &models.Vote{UserID: "bob", ReportID: report.ID}))

	vote, err := repo.FindVote(ctx, "alice", report.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, report.ID, vote.ReportID)

	none, err := repo.FindVote(ctx, "carol", report.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPromoteIfQuorumIsMonotonic(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	report := seedReport(t, repo)

	promoted, err := repo.PromoteIfQuorum(ctx, report.ID, 2)
	require.NoError(t, err)
	assert.False(t, promoted)

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.IncrementVerifications(ctx, report.ID))
	}
	promoted, err = repo.PromoteIfQuorum(ctx, report.ID, 2)
	require.NoError(t, err)
	assert.True(t, promoted)

	// Already verified: no second promotion, and a higher quorum does not demote.
	promoted, err = repo.PromoteIfQuorum(ctx, report.ID, 10)
	require.NoError(t, err)
	assert.False(t, promoted)

	got, err := repo.FindReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, got.Status)
	assert.Equal(t, 2, got.Verifications)
}

func TestIncrementVerificationsMissingReport(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.IncrementVerifications(context.Background(), 99)
	assert.ErrorIs(t, err, errs.ErrReportNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	report := seedReport(t, repo)

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx ReportRepository) error {
		if err := tx.CreateVote(ctx, &models.Vote{UserID: "alice", ReportID: report.ID}); err != nil {
			return err
		}
		if err := tx.IncrementVerifications(ctx, report.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	vote, err := repo.FindVote(ctx, "alice", report.ID)
	require.NoError(t, err)
	assert.Nil(t, vote)

	got, err := repo.FindReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Verifications)
}

func TestDeleteReport(t *testing.T) {
	repo, gdb := newTestRepo(t)
	ctx := context.Background()
	report := seedReport(t, repo)
	require.NoError(t, repo.CreateVote(ctx, &models.Vote{UserID: "alice", ReportID: report.ID}))

	deleted, err := repo.DeleteVotesForReport(ctx, report.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	require.NoError(t, repo.DeleteReport(ctx, report.ID))

	_, err = repo.FindReport(ctx, report.ID)
	assert.ErrorIs(t, err, errs.ErrReportNotFound)

	var votes int64
	require.NoError(t, gdb.DB.Model(&models.Vote{}).Count(&votes).Error)
	assert.Zero(t, votes)

	assert.ErrorIs(t, repo.DeleteReport(ctx, report.ID), errs.ErrReportNotFound)
}

func TestPing(t *testing.T) {
	repo, _ := newTestRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
