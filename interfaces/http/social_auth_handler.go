package http

import (
	"net/http"
	"strconv"

	"social-publisher/domain/dto"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type ISocialAuthHandler interface {
	StartAuthorization(c *gin.Context)
	Callback(c *gin.Context)
	ListAccounts(c *gin.Context)
	Disconnect(c *gin.Context)
}

type SocialAuthHandler struct {
	authUsecase usecase.ISocialAuthUsecase
}

func NewSocialAuthHandler(authUsecase usecase.ISocialAuthUsecase) ISocialAuthHandler {
	return &SocialAuthHandler{authUsecase: authUsecase}
}

// StartAuthorization mints a state token and returns the consent-screen URL.
func (h *SocialAuthHandler) StartAuthorization(c *gin.Context) {
	userID := c.GetString("user_id")
	platform := c.Param("platform")

	res, err := h.authUsecase.StartAuthorization(c.Request.Context(), userID, platform)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: res})
}

// Callback is hit by the platform's redirect; it is unauthenticated because
// the browser arrives without our bearer token. The state token carries the
// user identity instead.
func (h *SocialAuthHandler) Callback(c *gin.Context) {
	platform := c.Param("platform")
	state := c.Query("state")
	code := c.Query("code")

	if errParam := c.Query("error"); errParam != "" {
		logger.GetLogger().
			WithField("platform", platform).
			WithField("error", errParam).
			Warn("OAuth consent denied")
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "authorization denied: " + errParam})
		return
	}
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "state and code are required"})
		return
	}

	res, err := h.authUsecase.HandleCallback(c.Request.Context(), platform, state, code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: res})
}

func (h *SocialAuthHandler) ListAccounts(c *gin.Context) {
	userID := c.GetString("user_id")
	accounts, err := h.authUsecase.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: accounts})
}

// Disconnect deactivates the account; ?purge=1 removes it and its credential.
func (h *SocialAuthHandler) Disconnect(c *gin.Context) {
	userID := c.GetString("user_id")
	accountID, err := strconv.ParseInt(c.Param("accountId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "invalid account id"})
		return
	}
	purge := c.Query("purge") == "1" || c.Query("purge") == "true"

	if err := h.authUsecase.Disconnect(c.Request.Context(), userID, accountID, purge); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success"})
}
