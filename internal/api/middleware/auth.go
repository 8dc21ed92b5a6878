package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerTokenKey gin.Context 中保存透传 token 的 key
const BearerTokenKey = "bearerToken"

// BearerToken 提取 "Authorization: Bearer <token>" 供下游透传给账户数据 API。
// 本服务不校验 token，格式不对时忽略即可。
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				c.Set(BearerTokenKey, token)
			}
		}
		c.Next()
	}
}
