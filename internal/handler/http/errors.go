package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

// HandleServiceError 把 Service 层的业务错误映射到 HTTP 状态码
func HandleServiceError(c *gin.Context, err error) {
	var violation *service.TurnViolationError
	if errors.As(err, &violation) {
		ErrorResponse(c, http.StatusForbidden, violation.Message())
		return
	}

	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, service.ErrVideoNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRoomNameTaken):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		// 记录内部错误便于排查
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
