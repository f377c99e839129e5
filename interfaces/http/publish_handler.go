package http

import (
	"net/http"

	"social-publisher/domain/dto"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IPublishHandler interface {
	Publish(c *gin.Context)
	JobStatus(c *gin.Context)
	Cancel(c *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
}

func NewPublishHandler(publishUsecase usecase.IPublishUsecase) IPublishHandler {
	return &PublishHandler{publishUsecase: publishUsecase}
}

// Publish accepts the request and returns 202 with one job id per account.
// Per-account validation failures ride along in the errors map.
func (h *PublishHandler) Publish(c *gin.Context) {
	userID := c.GetString("user_id")

	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	res, err := h.publishUsecase.Publish(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.Res{ResponseCode: "202", ResponseMessage: "Accepted", Data: res})
}

func (h *PublishHandler) JobStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	jobID := c.Param("jobId")

	res, err := h.publishUsecase.JobStatus(c.Request.Context(), userID, jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: res})
}

func (h *PublishHandler) Cancel(c *gin.Context) {
	userID := c.GetString("user_id")
	jobID := c.Param("jobId")

	if err := h.publishUsecase.Cancel(c.Request.Context(), userID, jobID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success"})
}
