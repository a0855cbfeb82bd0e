package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"jurisync/internal/contract"
	"jurisync/internal/domain/entity"
	"jurisync/internal/domain/sqlite/repository"
	"jurisync/internal/utils"
	"jurisync/internal/utils/apierror"
)

type DistributionService interface {
	List(token *entity.ApiToken, f repository.FeedFilter) ([]*contract.DistributionResponse, apierror.ErrorResponse)
	Get(id int64) (*contract.DistributionResponse, apierror.ErrorResponse)
}

type PublicationService interface {
	List(token *entity.ApiToken, f repository.FeedFilter) ([]*contract.PublicationResponse, apierror.ErrorResponse)
	Get(id int64) (*contract.PublicationResponse, apierror.ErrorResponse)
}

type DeliveryConfirmer interface {
	ConfirmDelivery(token *entity.ApiToken, domain entity.ServiceType) apierror.ErrorResponse
}

// DefaultFeedRoute serves the distribution and publication read feeds. Both
// share the delivery confirmation flow of the process routes.
type DefaultFeedRoute struct {
	Distributions DistributionService
	Publications  PublicationService
	Confirmer     DeliveryConfirmer
}

func NewFeedDefault(distributions DistributionService, publications PublicationService, confirmer DeliveryConfirmer) *DefaultFeedRoute {
	return &DefaultFeedRoute{
		Distributions: distributions,
		Publications:  publications,
		Confirmer:     confirmer,
	}
}

func (f *DefaultFeedRoute) GetDistributions(c echo.Context) error {
	token, cerr := utils.GetTokenFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	filter, apierr := feedFilter(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	dists, apierr := f.Distributions.List(token, filter)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"distributions": dists}
	return c.JSON(http.StatusOK, &resp)
}

func (f *DefaultFeedRoute) GetDistribution(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	dist, apierr := f.Distributions.Get(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, dist)
}

func (f *DefaultFeedRoute) ConfirmDistributions(c echo.Context) error {
	return f.confirm(c, entity.ServiceDistributions)
}

func (f *DefaultFeedRoute) GetPublications(c echo.Context) error {
	token, cerr := utils.GetTokenFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	filter, apierr := feedFilter(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	pubs, apierr := f.Publications.List(token, filter)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"publications": pubs}
	return c.JSON(http.StatusOK, &resp)
}

func (f *DefaultFeedRoute) GetPublication(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int64"))
	}

	pub, apierr := f.Publications.Get(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, pub)
}

func (f *DefaultFeedRoute) ConfirmPublications(c echo.Context) error {
	return f.confirm(c, entity.ServicePublications)
}

func (f *DefaultFeedRoute) confirm(c echo.Context, domain entity.ServiceType) error {
	token, cerr := utils.GetTokenFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	action, err := contract.ParseAction(c.QueryParam("action"))
	if err != nil || action != contract.ActionConfirm {
		return c.JSON(http.StatusBadRequest, apierror.UnknownActionError)
	}

	if apierr := f.Confirmer.ConfirmDelivery(token, domain); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func feedFilter(c echo.Context) (repository.FeedFilter, apierror.ErrorResponse) {
	var f repository.FeedFilter

	limit, apierr := intQueryParam(c, "limit")
	if apierr != nil {
		return f, apierr
	}
	offset, apierr := intQueryParam(c, "offset")
	if apierr != nil {
		return f, apierr
	}

	f.Limit = limit
	f.Offset = offset
	f.ProcessNumber = c.QueryParam("process_number")

	if raw := c.QueryParam("since"); raw != "" {
		since, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, apierror.NewInvalidParamTypeError("since", "int64 epoch millis")
		}
		f.Since = since
	}
	return f, nil
}
