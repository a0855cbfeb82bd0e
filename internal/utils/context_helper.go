package utils

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils/apierror"
)

func GetTokenFromContext(c echo.Context) (*entity.ApiToken, apierror.ErrorResponse) {
	val := c.Get("api_token")
	if val == nil {
		log.Warnf("route %s attempted to read nil token from context", c.Request().URL)
		return nil, apierror.UnauthorizedError
	}

	token, ok := val.(*entity.ApiToken)
	if !ok {
		log.Warnf("expected token type at 'api_token' context key, got %T", val)
		return nil, apierror.InternalServerError
	}
	return token, nil
}

func GetClientFromContext(c echo.Context) (*entity.ClientSystem, apierror.ErrorResponse) {
	val := c.Get("client")
	if val == nil {
		log.Warnf("route %s attempted to read nil client from context", c.Request().URL)
		return nil, apierror.UnauthorizedError
	}

	client, ok := val.(*entity.ClientSystem)
	if !ok {
		log.Warnf("expected client type at 'client' context key, got %T", val)
		return nil, apierror.InternalServerError
	}
	return client, nil
}
