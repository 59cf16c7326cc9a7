package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	errs "github.com/techagentng/lankawatch/errors"
	"github.com/techagentng/lankawatch/models"
	"gorm.io/gorm"
)

// ReportRepository is the store behind the report service. Every method runs
// against the connection or transaction the repository was built on.
type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	ListReports(ctx context.Context) ([]models.Report, error)
	FindReport(ctx context.Context, id uint) (*models.Report, error)
	FindVote(ctx context.Context, userID string, reportID uint) (*models.Vote, error)
	CreateVote(ctx context.Context, vote *models.Vote) error
	IncrementVerifications(ctx context.Context, reportID uint) error
	PromoteIfQuorum(ctx context.Context, reportID uint, quorum int) (bool, error)
	DeleteVotesForReport(ctx context.Context, reportID uint) (int64, error)
	DeleteReport(ctx context.Context, id uint) error
	// Transaction runs fn as one unit of work. fn receives a repository bound to
	// the transaction; returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(repo ReportRepository) error) error
	Ping(ctx context.Context) error
}

type reportRepo struct {
	gdb *GormDB
	DB  *gorm.DB
}

func NewReportRepo(db *GormDB) ReportRepository {
	return &reportRepo{gdb: db, DB: db.DB}
}

func (r *reportRepo) CreateReport(ctx context.Context, report *models.Report) error {
	if err := r.DB.WithContext(ctx).Create(report).Error; err != nil {
		return errors.Wrap(err, "failed to save report")
	}
	return nil
}

func (r *reportRepo) ListReports(ctx context.Context) ([]models.Report, error) {
	reports := []models.Report{}
	if err := r.DB.WithContext(ctx).Order("id").Find(&reports).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list reports")
	}
	return reports, nil
}

func (r *reportRepo) FindReport(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.DB.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrReportNotFound
		}
		return nil, errors.Wrapf(err, "failed to load report %d", id)
	}
	return &report, nil
}

// FindVote returns nil without error when the user has not voted on the report.
func (r *reportRepo) FindVote(ctx context.Context, userID string, reportID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND report_id = ?", userID, reportID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to look up vote")
	}
	return &vote, nil
}

// CreateVote inserts vote. A violation of idx_votes_user_report means another
// request recorded the same vote first and is reported as ErrAlreadyVoted.
func (r *reportRepo) CreateVote(ctx context.Context, vote *models.Vote) error {
	if err := r.DB.WithContext(ctx).Omit("Report").Create(vote).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyVoted
		}
		return errors.Wrap(err, "failed to record vote")
	}
	return nil
}

func (r *reportRepo) IncrementVerifications(ctx context.Context, reportID uint) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ?", reportID).
		UpdateColumn("verifications", gorm.Expr("verifications + ?", 1))
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update verification count")
	}
	if res.RowsAffected == 0 {
		return errs.ErrReportNotFound
	}
	return nil
}

// PromoteIfQuorum marks the report verified once its count reaches quorum. It
// only ever moves unverified reports, so the status never goes back. The
// returned bool is true when this call performed the promotion.
func (r *reportRepo) PromoteIfQuorum(ctx context.Context, reportID uint, quorum int) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ? AND status = ? AND verifications >= ?", reportID, string(models.StatusUnverified), quorum).
		UpdateColumn("status", string(models.StatusVerified))
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to update report status")
	}
	return res.RowsAffected > 0, nil
}

func (r *reportRepo) DeleteVotesForReport(ctx context.Context, reportID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("report_id = ?", reportID).Delete(&models.Vote{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to delete votes")
	}
	return res.RowsAffected, nil
}

func (r *reportRepo) DeleteReport(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Report{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to delete report %d", id)
	}
	if res.RowsAffected == 0 {
		return errs.ErrReportNotFound
	}
	return nil
}

func (r *reportRepo) Transaction(ctx context.Context, fn func(repo ReportRepository) error) error {
	run := func(tx *gorm.DB) error {
		return fn(&reportRepo{gdb: r.gdb, DB: tx})
	}
	if opts := r.gdb.txOptions(); opts != nil {
		return r.DB.WithContext(ctx).Transaction(run, opts)
	}
	return r.DB.WithContext(ctx).Transaction(run)
}

func (r *reportRepo) Ping(ctx context.Context) error {
	return r.gdb.Ping(ctx)
}

// isUniqueViolation reports whether err came from a unique constraint, for
// both the postgres and sqlite drivers.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
