package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"jurisync/internal/contract"
	"jurisync/internal/domain/entity"
	"jurisync/internal/domain/sqlite/repository"
	"jurisync/internal/utils"
	"jurisync/internal/utils/apierror"
)

type ProcessService interface {
	Register(ctx context.Context, client *entity.ClientSystem, req *contract.RegisterProcessRequest) (*contract.ProcessResponse, apierror.ErrorResponse)
	UpdateNumber(ctx context.Context, id int64, req *contract.UpdateProcessNumberRequest) (*contract.ProcessResponse, apierror.ErrorResponse)
	List(token *entity.ApiToken, f repository.ProcessFilter) ([]*contract.ProcessResponse, apierror.ErrorResponse)
	Get(id int64, includes []string) (*contract.ProcessResponse, apierror.ErrorResponse)
	SetStatus(id int64, req *contract.SetProcessStatusRequest) (*contract.ProcessResponse, apierror.ErrorResponse)
	ConfirmDelivery(token *entity.ApiToken, domain entity.ServiceType) apierror.ErrorResponse
}

type DefaultProcessRoute struct {
	ProcessService ProcessService
}

func NewProcessDefault(processService ProcessService) *DefaultProcessRoute {
	return &DefaultProcessRoute{ProcessService: processService}
}

func (p *DefaultProcessRoute) GetProcesses(c echo.Context) error {
	token, cerr := utils.GetTokenFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	filter, apierr := processFilter(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	processes, apierr := p.ProcessService.List(token, filter)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"processes": processes}
	return c.JSON(http.StatusOK, &resp)
}

func (p *DefaultProcessRoute) GetProcess(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	process, apierr := p.ProcessService.Get(id, splitIncludes(c.QueryParam("include")))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, process)
}

// CreateProcess registers a new process, or confirms the last delivered batch
// when ?action=confirm is passed. Any other action value is rejected.
func (p *DefaultProcessRoute) CreateProcess(c echo.Context) error {
	if c.QueryParam("action") != "" {
		return p.handleAction(c, entity.ServiceProcesses)
	}

	client, cerr := utils.GetClientFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.RegisterProcessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	process, apierr := p.ProcessService.Register(c.Request().Context(), client, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, process)
}

func (p *DefaultProcessRoute) UpdateProcess(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	var req contract.UpdateProcessNumberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	process, apierr := p.ProcessService.UpdateNumber(c.Request().Context(), id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, process)
}

// SetProcessStatus is the operator route that overrides a process status,
// e.g. to reactivate an archived process. It sits behind the internal token.
func (p *DefaultProcessRoute) SetProcessStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	var req contract.SetProcessStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	process, apierr := p.ProcessService.SetStatus(id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, process)
}

func (p *DefaultProcessRoute) handleAction(c echo.Context, domain entity.ServiceType) error {
	token, cerr := utils.GetTokenFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	action, err := contract.ParseAction(c.QueryParam("action"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.UnknownActionError)
	}

	switch action {
	case contract.ActionConfirm:
		if apierr := p.ProcessService.ConfirmDelivery(token, domain); apierr != nil {
			return c.JSON(apierr.Code(), apierr)
		}
		return c.NoContent(http.StatusOK)
	}
	return c.JSON(http.StatusBadRequest, apierror.UnknownActionError)
}

func processFilter(c echo.Context) (repository.ProcessFilter, apierror.ErrorResponse) {
	var f repository.ProcessFilter

	limit, apierr := intQueryParam(c, "limit")
	if apierr != nil {
		return f, apierr
	}
	offset, apierr := intQueryParam(c, "offset")
	if apierr != nil {
		return f, apierr
	}
	status, apierr := intQueryParam(c, "status")
	if apierr != nil {
		return f, apierr
	}

	f.Limit = limit
	f.Offset = offset
	f.StatusCode = status
	f.Number = strings.TrimSpace(c.QueryParam("number"))
	return f, nil
}

func intQueryParam(c echo.Context, name string) (int, apierror.ErrorResponse) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.NewInvalidParamTypeError(name, "int")
	}
	return value, nil
}

func splitIncludes(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	includes := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			includes = append(includes, p)
		}
	}
	return includes
}
