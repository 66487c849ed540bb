package response

import (
	"net/http"

	"github.com/xmrpay-next/internal/constants"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构，HTTP 状态恒为 200，业务结果看 status_code
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

func write(c *gin.Context, code int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{StatusCode: code, Msg: msg, Data: data})
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, CodeOK, "success", data)
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	write(c, CodeOK, msg, data)
}

// Error 错误响应，data 中附带 request_id 便于排查
func Error(c *gin.Context, code int, msg string) {
	write(c, code, msg, withRequestID(c, nil))
}

// ErrorWithData 错误响应（带数据）
func ErrorWithData(c *gin.Context, code int, msg string, data interface{}) {
	write(c, code, msg, withRequestID(c, data))
}

// NotFound 404
func NotFound(c *gin.Context, msg string) {
	Error(c, CodeNotFound, msg)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

func withRequestID(c *gin.Context, data interface{}) interface{} {
	if c == nil {
		return data
	}
	requestID := c.GetString(constants.ContextKeyRequestID)
	if requestID == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{"request_id": requestID}
	case gin.H:
		if _, exists := v["request_id"]; !exists {
			v["request_id"] = requestID
		}
		return v
	default:
		return gin.H{"request_id": requestID, "data": data}
	}
}
