package services

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/techagentng/lankawatch/config"
	"github.com/techagentng/lankawatch/db"
	errs "github.com/techagentng/lankawatch/errors"
	"github.com/techagentng/lankawatch/metrics"
	"github.com/techagentng/lankawatch/models"
)

// ReportService owns the report and vote rules.
type ReportService interface {
	CreateReport(ctx context.Context, category, description string, lat, lng float64) (*models.Report, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	GetReport(ctx context.Context, id uint) (*models.Report, error)
	CastVote(ctx context.Context, reportID uint, userID string) (*models.VoteResult, error)
	DeleteReport(ctx context.Context, id uint) error
}

type IncidentService struct {
	Config     *config.Config
	reportRepo db.ReportRepository
	metrics    *metrics.Recorder
}

// NewIncidentService instantiates the ReportService.
func NewIncidentService(reportRepo db.ReportRepository, rec *metrics.Recorder, conf *config.Config) *IncidentService {
	return &IncidentService{
		Config:     conf,
		reportRepo: reportRepo,
		metrics:    rec,
	}
}

func (s *IncidentService) CreateReport(ctx context.Context, category, description string, lat, lng float64) (*models.Report, error) {
	report := &models.Report{
		Category:      category,
		Description:   description,
		Status:        models.StatusUnverified,
		Lat:           lat,
		Lng:           lng,
		Verifications: 0,
		Flags:         0,
	}
	if err := s.reportRepo.CreateReport(ctx, report); err != nil {
		log.WithError(err).Error("create report")
		return nil, err
	}

	s.metrics.ReportsCreated.Inc()
	log.WithFields(log.Fields{"report_id": report.ID, "category": report.Category}).Info("report created")
	return report, nil
}

func (s *IncidentService) ListReports(ctx context.Context) ([]models.Report, error) {
	return s.reportRepo.ListReports(ctx)
}

func (s *IncidentService) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	return s.reportRepo.FindReport(ctx, id)
}

// CastVote records userID's verification of reportID and promotes the report
// once the quorum is reached. The lookup of an existing vote is only an early
// exit; the unique index on (user_id, report_id) decides races, and its
// violation surfaces as errs.ErrAlreadyVoted.
func (s *IncidentService) CastVote(ctx context.Context, reportID uint, userID string) (*models.VoteResult, error) {
	var (
		result   *models.VoteResult
		promoted bool
	)
	err := s.reportRepo.Transaction(ctx, func(tx db.ReportRepository) error {
		if _, err := tx.FindReport(ctx, reportID); err != nil {
			return err
		}

		existing, err := tx.FindVote(ctx, userID, reportID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.ErrAlreadyVoted
		}

		if err := tx.CreateVote(ctx, &models.Vote{UserID: userID, ReportID: reportID}); err != nil {
			return err
		}
		if err := tx.IncrementVerifications(ctx, reportID); err != nil {
			return err
		}
		promoted, err = tx.PromoteIfQuorum(ctx, reportID, s.Config.QuorumThreshold)
		if err != nil {
			return err
		}

		report, err := tx.FindReport(ctx, reportID)
		if err != nil {
			return err
		}
		result = &models.VoteResult{
			ReportID:      report.ID,
			Status:        report.Status,
			Verifications: report.Verifications,
		}
		return nil
	})

	fields := log.Fields{"report_id": reportID, "user_id": userID}
	if err != nil {
		kind := errs.Kind(err)
		fields["kind"] = kind.String()
		switch kind {
		case errs.KindNotFound:
			s.metrics.RecordVote(metrics.OutcomeNotFound)
		case errs.KindConflict:
			s.metrics.RecordVote(metrics.OutcomeConflict)
			log.WithFields(fields).Info("duplicate vote rejected")
		default:
			s.metrics.RecordVote(metrics.OutcomeError)
			log.WithFields(fields).WithError(err).Error("cast vote")
		}
		return nil, err
	}

	s.metrics.RecordVote(metrics.OutcomeAccepted)
	fields["verifications"] = result.Verifications
	log.WithFields(fields).Info("vote accepted")
	if promoted {
		s.metrics.ReportsVerified.Inc()
		log.WithFields(fields).Info("report verified")
	}
	return result, nil
}

// DeleteReport removes the report together with its votes.
func (s *IncidentService) DeleteReport(ctx context.Context, id uint) error {
	var (
		votes    int64
		verified bool
	)
	err := s.reportRepo.Transaction(ctx, func(tx db.ReportRepository) error {
		report, err := tx.FindReport(ctx, id)
		if err != nil {
			return err
		}
		verified = report.IsVerified()
		n, err := tx.DeleteVotesForReport(ctx, id)
		if err != nil {
			return err
		}
		votes = n
		return tx.DeleteReport(ctx, id)
	})
	if err != nil {
		if errs.Kind(err) == errs.KindStoreFailure {
			log.WithField("report_id", id).WithError(err).Error("delete report")
		}
		return err
	}

	s.metrics.ReportsDeleted.Inc()
	log.WithFields(log.Fields{"report_id": id, "votes": votes, "verified": verified}).Info("report deleted")
	return nil
}
