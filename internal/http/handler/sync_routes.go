package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"jurisync/internal/contract"
	"jurisync/internal/domain/entity"
	"jurisync/internal/service"
	"jurisync/internal/utils"
	"jurisync/internal/utils/apierror"
)

const defaultSyncLogLimit = 50

type SyncTrigger interface {
	Run(ctx context.Context, req service.SyncRequest) (*service.SyncResult, error)
}

type SyncLogReader interface {
	ListByService(serviceID int64, limit int) ([]*entity.SyncLog, error)
}

// DefaultSyncRoute exposes the internal sync trigger. These routes sit behind
// the internal token, not the client security gate.
type DefaultSyncRoute struct {
	Orchestrator SyncTrigger
	Logs         SyncLogReader
	Validate     *validator.Validate
}

func NewSyncDefault(orchestrator SyncTrigger, logs SyncLogReader, validate *validator.Validate) *DefaultSyncRoute {
	return &DefaultSyncRoute{
		Orchestrator: orchestrator,
		Logs:         logs,
		Validate:     validate,
	}
}

func (s *DefaultSyncRoute) TriggerSync(c echo.Context) error {
	var req contract.SyncTriggerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	utils.Sanitize(&req)
	if valerr := s.Validate.Struct(&req); valerr != nil {
		apierr := apierror.FromValidationError(valerr)
		return c.JSON(apierr.Code(), apierr)
	}

	domains := make([]entity.ServiceType, len(req.Domains))
	for i, d := range req.Domains {
		domains[i] = entity.ServiceType(d)
	}

	result, err := s.Orchestrator.Run(c.Request().Context(), service.SyncRequest{
		Domains:    domains,
		ServiceIDs: req.ServiceIDs,
		Force:      req.Force,
		Parallel:   req.Parallel,
	})
	if err != nil {
		log.Errorf("sync run failed: %v", err)
		return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *DefaultSyncRoute) GetSyncLogs(c echo.Context) error {
	serviceID, err := strconv.ParseInt(c.QueryParam("service_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("service_id", "int64"))
	}

	limit, apierr := intQueryParam(c, "limit")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	if limit <= 0 || limit > contract.MaxListLimit {
		limit = defaultSyncLogLimit
	}

	logs, err := s.Logs.ListByService(serviceID, limit)
	if err != nil {
		log.Errorf("failed to list sync logs: %v", err)
		return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
	}

	resp := echo.Map{"logs": toSyncLogResponses(logs)}
	return c.JSON(http.StatusOK, &resp)
}

type syncLogResponse struct {
	ID            int64  `json:"id"`
	ServiceID     int64  `json:"service_id"`
	Status        string `json:"status"`
	RecordsSynced int    `json:"records_synced"`
	ErrorMessage  string `json:"error_message,omitempty"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
}

func toSyncLogResponses(logs []*entity.SyncLog) []*syncLogResponse {
	resp := make([]*syncLogResponse, len(logs))
	for i, entry := range logs {
		r := &syncLogResponse{
			ID:            entry.ID,
			ServiceID:     entry.PartnerServiceID,
			Status:        string(entry.Status),
			RecordsSynced: entry.RecordsSynced,
			ErrorMessage:  entry.ErrorMessage,
			StartedAt:     utils.FormatEpoch(entry.StartedAt),
		}
		if entry.FinishedAt > 0 {
			r.FinishedAt = utils.FormatEpoch(entry.FinishedAt)
		}
		resp[i] = r
	}
	return resp
}
