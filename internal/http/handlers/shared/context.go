package shared

import (
	"strings"

	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextString 从上下文读取字符串值并统一处理错误响应。
func GetContextString(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return "", false
	}
	text, ok := value.(string)
	if !ok {
		RespondError(c, response.CodeInternal, "invalid context value: "+key, nil)
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return "", false
	}
	return text, true
}

// GetAdminID 读取中间件写入的管理员标识。
func GetAdminID(c *gin.Context) (string, bool) {
	return GetContextString(c, constants.ContextKeyAdminID)
}
