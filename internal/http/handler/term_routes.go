package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"jurisync/internal/contract"
	"jurisync/internal/utils/apierror"
)

type TermService interface {
	CreateTerm(ctx context.Context, req *contract.TermRequest) (*contract.TermResponse, apierror.ErrorResponse)
	SetTermActive(ctx context.Context, id int64, active bool) (*contract.TermResponse, apierror.ErrorResponse)
	DeleteTerm(ctx context.Context, id int64) apierror.ErrorResponse
	ListTerms(serviceID int64) ([]*contract.TermResponse, apierror.ErrorResponse)
	ListCoverages(ctx context.Context, serviceID int64) ([]*contract.CoverageResponse, apierror.ErrorResponse)
}

// DefaultTermRoute manages publication search terms. Internal routes: terms
// change what the partner matches for every client, not one of them.
type DefaultTermRoute struct {
	TermService TermService
}

func NewTermDefault(termService TermService) *DefaultTermRoute {
	return &DefaultTermRoute{TermService: termService}
}

func (t *DefaultTermRoute) GetTerms(c echo.Context) error {
	serviceID, err := strconv.ParseInt(c.QueryParam("service_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("service_id", "int64"))
	}

	terms, apierr := t.TermService.ListTerms(serviceID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"terms": terms}
	return c.JSON(http.StatusOK, &resp)
}

func (t *DefaultTermRoute) CreateTerm(c echo.Context) error {
	var req contract.TermRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	term, apierr := t.TermService.CreateTerm(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, term)
}

func (t *DefaultTermRoute) UpdateTerm(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	term, apierr := t.TermService.SetTermActive(c.Request().Context(), id, *req.Active)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, term)
}

func (t *DefaultTermRoute) DeleteTerm(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	if apierr := t.TermService.DeleteTerm(c.Request().Context(), id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (t *DefaultTermRoute) GetCoverages(c echo.Context) error {
	serviceID, err := strconv.ParseInt(c.QueryParam("service_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("service_id", "int64"))
	}

	coverages, apierr := t.TermService.ListCoverages(c.Request().Context(), serviceID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"coverages": coverages}
	return c.JSON(http.StatusOK, &resp)
}
