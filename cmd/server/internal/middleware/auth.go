package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenAuth 校验 Bearer JWT（HS256 共享密钥）。secret 为空时不做任何校验。
//
// 健康检查、指标端点、CORS 预检和 WebSocket 升级请求不经过鉴权：
// 浏览器的 WebSocket API 无法附加 Authorization 头。
func TokenAuth(secret string, authLogger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" ||
			c.Request.Method == http.MethodOptions ||
			strings.HasPrefix(path, "/ws/") {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if len(auth) < 8 || !strings.HasPrefix(auth, "Bearer ") {
			authLogger.Warn("missing bearer token",
				"method", c.Request.Method,
				"path", path,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := ParseToken(auth[7:], secret)
		if err != nil {
			authLogger.Warn("invalid token",
				"method", c.Request.Method,
				"path", path,
				"error", err,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user", claims.Subject)
		c.Next()
	}
}

// IssueToken 为 subject 签发有效期 ttl 的 HS256 token
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}

// ParseToken 验证并返回 claims
func ParseToken(tokenStr, secret string) (*jwt.RegisteredClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
