package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"jurisync/internal/contract"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
	"jurisync/internal/utils/apierror"
)

type WebhookService interface {
	CreateWebhook(client *entity.ClientSystem, req *contract.WebhookRequest) (*contract.WebhookResponse, apierror.ErrorResponse)
	ListWebhooks(client *entity.ClientSystem) ([]*contract.WebhookResponse, apierror.ErrorResponse)
	DeleteWebhook(client *entity.ClientSystem, id int64) apierror.ErrorResponse
}

type DefaultWebhookRoute struct {
	WebhookService WebhookService
}

func NewWebhookDefault(webhookService WebhookService) *DefaultWebhookRoute {
	return &DefaultWebhookRoute{WebhookService: webhookService}
}

func (w *DefaultWebhookRoute) GetWebhooks(c echo.Context) error {
	client, cerr := utils.GetClientFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	hooks, apierr := w.WebhookService.ListWebhooks(client)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"webhooks": hooks}
	return c.JSON(http.StatusOK, &resp)
}

func (w *DefaultWebhookRoute) CreateWebhook(c echo.Context) error {
	client, cerr := utils.GetClientFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.WebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	hook, apierr := w.WebhookService.CreateWebhook(client, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, hook)
}

func (w *DefaultWebhookRoute) DeleteWebhook(c echo.Context) error {
	client, cerr := utils.GetClientFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	if apierr := w.WebhookService.DeleteWebhook(client, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}
