package router

import (
	"strings"

	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims 管理端令牌声明，令牌由外部身份系统签发
type AdminClaims struct {
	AdminID  string `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Identity 返回管理员标识，缺省时使用 sub
func (c *AdminClaims) Identity() string {
	if id := strings.TrimSpace(c.AdminID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Subject)
}

// JWTAuthMiddleware 管理端 JWT 鉴权中间件（HS256）
func JWTAuthMiddleware(secretKey string) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	return func(c *gin.Context) {
		if secretKey == "" {
			response.Unauthorized(c, "jwt secret is not configured")
			c.Abort()
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header is missing")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Unauthorized(c, "authorization header is invalid")
			c.Abort()
			return
		}

		claims := &AdminClaims{}
		token, err := parser.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid || claims.Identity() == "" {
			response.Unauthorized(c, "token is invalid")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyAdminID, claims.Identity())
		c.Set(constants.ContextKeyUsername, claims.Username)
		c.Next()
	}
}
