package admin

import (
	"errors"

	handlershared "github.com/xmrpay-next/internal/http/handlers/shared"
	"github.com/xmrpay-next/internal/http/response"
	"github.com/xmrpay-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func getAdminID(c *gin.Context) (string, bool) {
	return handlershared.GetAdminID(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// respondServiceError 将服务层哨兵错误映射为业务状态码
func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondAppError(c, mapServiceError(err))
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		return response.WrapError(response.CodeNotFound, "store not found", nil)
	case errors.Is(err, service.ErrMoneroCryptoCodeNotFound):
		return response.WrapError(response.CodeNotFound, "payment method not found", nil)
	case errors.Is(err, service.ErrStoreInvalid):
		return response.WrapError(response.CodeBadRequest, err.Error(), nil)
	default:
		return err
	}
}
