package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/internal/orchestrator"
	"uppdragsradarn-crawler/internal/storage"
	"uppdragsradarn-crawler/pkg/models"
	"uppdragsradarn-crawler/pkg/utils"
)

var validate = validator.New()

const defaultJobListLimit = 20

// jobListQuery is the query-string shape for job listing endpoints
type jobListQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// StartCrawlHandler starts a crawl job for one source
func StartCrawlHandler(o *orchestrator.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		sourceID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_source_id",
				Message:   "Source ID must be a UUID",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		job, err := o.StartCrawl(c.Request().Context(), sourceID)
		if err != nil {
			logger.Error("Failed to start crawl", map[string]interface{}{
				"request_id": requestID,
				"source_id":  sourceID,
				"error":      err.Error(),
			})
			switch {
			case errors.Is(err, storage.ErrNotFound):
				return c.JSON(http.StatusNotFound, models.ErrorResponse{
					Error:     "source_not_found",
					Message:   "No source with that ID",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			case errors.Is(err, orchestrator.ErrSourceAlreadyRunning):
				return c.JSON(http.StatusConflict, models.ErrorResponse{
					Error:     "crawl_already_running",
					Message:   err.Error(),
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			default:
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
					Error:     "crawl_start_failed",
					Message:   fmt.Sprintf("Failed to start crawl: %v", err),
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}
		}

		return c.JSON(http.StatusAccepted, models.StartJobResponse{
			Job:       job,
			RequestID: requestID,
		})
	}
}

// SweepHandler starts a crawl job for every active source
func SweepHandler(o *orchestrator.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		jobs, total, err := o.StartAllActive(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "sweep_failed",
				Message:   fmt.Sprintf("Failed to sweep sources: %v", err),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusAccepted, models.SweepResponse{
			SourcesTotal: total,
			JobsStarted:  len(jobs),
			Failures:     total - len(jobs),
		})
	}
}

// GetJobHandler returns one crawl job by ID
func GetJobHandler(o *orchestrator.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		job, err := o.GetJob(c.Request().Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusNotFound, models.ErrorResponse{
					Error:     "job_not_found",
					Message:   "No crawl job with that ID",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "job_lookup_failed",
				Message:   fmt.Sprintf("Failed to load crawl job: %v", err),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, job)
	}
}

// RecentJobsHandler lists the most recently started crawl jobs
func RecentJobsHandler(o *orchestrator.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		query, errResp := bindJobListQuery(c, requestID)
		if errResp != nil {
			return c.JSON(http.StatusBadRequest, *errResp)
		}

		jobs, err := o.RecentJobs(c.Request().Context(), query.Limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "job_list_failed",
				Message:   fmt.Sprintf("Failed to list crawl jobs: %v", err),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, models.JobListResponse{Jobs: jobs, Count: len(jobs)})
	}
}

// JobsBySourceHandler lists recent crawl jobs for one source
func JobsBySourceHandler(o *orchestrator.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		sourceID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_source_id",
				Message:   "Source ID must be a UUID",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		query, errResp := bindJobListQuery(c, requestID)
		if errResp != nil {
			return c.JSON(http.StatusBadRequest, *errResp)
		}

		jobs, err := o.JobsBySource(c.Request().Context(), sourceID, query.Limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "job_list_failed",
				Message:   fmt.Sprintf("Failed to list crawl jobs: %v", err),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, models.JobListResponse{Jobs: jobs, Count: len(jobs)})
	}
}

// CancelJobHandler requests cancellation of a running crawl job
func CancelJobHandler(o *orchestrator.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		jobID := c.Param("id")

		_, err := o.CancelJob(c.Request().Context(), jobID)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				return c.JSON(http.StatusNotFound, models.ErrorResponse{
					Error:     "job_not_found",
					Message:   "No crawl job with that ID",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			case errors.Is(err, orchestrator.ErrJobTerminal):
				return c.JSON(http.StatusConflict, models.ErrorResponse{
					Error:     "job_already_finished",
					Message:   "Finished crawl jobs cannot be cancelled",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			default:
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
					Error:     "cancel_failed",
					Message:   fmt.Sprintf("Failed to cancel crawl job: %v", err),
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}
		}

		return c.JSON(http.StatusOK, models.CancelJobResponse{JobID: jobID, Cancelled: true})
	}
}

func bindJobListQuery(c echo.Context, requestID string) (*jobListQuery, *models.ErrorResponse) {
	query := &jobListQuery{}
	if err := c.Bind(query); err != nil {
		return nil, &models.ErrorResponse{
			Error:     "invalid_request",
			Message:   "Invalid query parameters",
			RequestID: requestID,
			Timestamp: time.Now(),
		}
	}
	if err := validate.Struct(query); err != nil {
		return nil, &models.ErrorResponse{
			Error:     "validation_failed",
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: time.Now(),
		}
	}
	if query.Limit == 0 {
		query.Limit = defaultJobListLimit
	}
	return query, nil
}
