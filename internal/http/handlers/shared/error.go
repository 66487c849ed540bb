package shared

import (
	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/http/response"
	"github.com/xmrpay-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get(constants.ContextKeyRequestID); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	RespondAppError(c, response.WrapError(code, msg, err))
}

// RespondAppError 按 AppError 输出响应，非 AppError 视为内部错误。
func RespondAppError(c *gin.Context, err error) {
	appErr := response.AsAppError(err)
	if appErr.Err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", appErr.Err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}
