package http

import (
	"errors"
	"net/http"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"

	"github.com/gin-gonic/gin"
)

// writeError maps the error taxonomy onto HTTP statuses:
// validation 400/404, auth 401, state 400, platform upstream 502, timeout 504.
func writeError(c *gin.Context, err error) {
	var (
		validationErr *model.ValidationError
		authErr       *model.AuthError
		stateErr      *model.StateError
		apiErr        *model.PlatformAPIError
		timeoutErr    *model.TimeoutError
	)
	switch {
	case errors.As(err, &validationErr):
		status := http.StatusBadRequest
		if validationErr.Reason == model.ReasonAccountNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, dto.Res{ResponseCode: "400", ResponseMessage: validationErr.Reason})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, dto.Res{
			ResponseCode:    "401",
			ResponseMessage: string(authErr.Kind),
			Data:            gin.H{"platform": authErr.Platform},
		})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "invalid or expired state"})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, dto.Res{
			ResponseCode:    "502",
			ResponseMessage: apiErr.Message,
			Data:            gin.H{"platform": apiErr.Platform, "code": apiErr.Code},
		})
	case errors.As(err, &timeoutErr):
		c.JSON(http.StatusGatewayTimeout, dto.Res{ResponseCode: "504", ResponseMessage: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "Internal Server Error"})
	}
}
