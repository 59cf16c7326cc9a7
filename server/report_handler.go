package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/leebenson/conform"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	errs "github.com/techagentng/lankawatch/errors"
	"github.com/techagentng/lankawatch/models"
	"github.com/techagentng/lankawatch/server/response"
)

func (s *Server) handleCreateReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondAndAbort(c, "", http.StatusBadRequest, nil, bindingError(err))
			return
		}
		if err := conform.Strings(&req); err != nil {
			respondAndAbort(c, "", http.StatusBadRequest, nil, errs.New("invalid request body", http.StatusBadRequest))
			return
		}

		report, err := s.ReportService.CreateReport(c.Request.Context(), req.Category, req.Description, *req.Lat, *req.Lng)
		if err != nil {
			respondWithDomainError(c, err)
			return
		}
		response.JSON(c, "Report saved successfully", http.StatusCreated, report, nil)
	}
}

func (s *Server) handleListReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		reports, err := s.ReportService.ListReports(c.Request.Context())
		if err != nil {
			respondWithDomainError(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, reports, nil)
	}
}

func (s *Server) handleGetReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := reportIDParam(c)
		if !ok {
			return
		}
		report, err := s.ReportService.GetReport(c.Request.Context(), id)
		if err != nil {
			respondWithDomainError(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, report, nil)
	}
}

func (s *Server) handleCastVote() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := reportIDParam(c)
		if !ok {
			return
		}

		var req models.CastVoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondAndAbort(c, "", http.StatusBadRequest, nil, bindingError(err))
			return
		}
		if err := conform.Strings(&req); err != nil || req.UserID == "" {
			respondAndAbort(c, "", http.StatusBadRequest, nil, errs.New("missing or invalid fields: user_id", http.StatusBadRequest))
			return
		}

		result, err := s.ReportService.CastVote(c.Request.Context(), id, req.UserID)
		if err != nil {
			respondWithDomainError(c, err)
			return
		}
		response.JSON(c, "Vote recorded", http.StatusOK, result, nil)
	}
}

func (s *Server) handleDeleteReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := reportIDParam(c)
		if !ok {
			return
		}
		if err := s.ReportService.DeleteReport(c.Request.Context(), id); err != nil {
			respondWithDomainError(c, err)
			return
		}
		response.JSON(c, "Report deleted successfully", http.StatusOK, gin.H{"id": id}, nil)
	}
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.ReportRepository.Ping(c.Request.Context()); err != nil {
			log.WithError(err).Warn("health check failed")
			respondAndAbort(c, "", http.StatusServiceUnavailable, nil, errs.New("store unavailable", http.StatusServiceUnavailable))
			return
		}
		response.JSON(c, "ok", http.StatusOK, nil, nil)
	}
}

// reportIDParam parses the :id path parameter, answering 400 when it is not a
// positive integer.
func reportIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondAndAbort(c, "", http.StatusBadRequest, nil, errs.New("invalid report id", http.StatusBadRequest))
		return 0, false
	}
	return uint(id), true
}

func respondWithDomainError(c *gin.Context, err error) {
	e := errs.FromDomain(err)
	respondAndAbort(c, "", e.Status, nil, e)
}

func bindingError(err error) *errs.Error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fe.Field())
		}
		return errs.New("missing or invalid fields: "+strings.Join(fields, ", "), http.StatusBadRequest)
	}
	return errs.New("invalid request body", http.StatusBadRequest)
}
