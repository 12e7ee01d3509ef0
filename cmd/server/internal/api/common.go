package api

import (
	"github.com/gin-gonic/gin"
)

// currentUser 获取当前用户
// 由认证中间件注入；未启用鉴权时回退到 Header 或固定占位符
func currentUser(c *gin.Context) string {
	// 优先从 context 中获取用户信息 (由认证中间件设置)
	if user, exists := c.Get("user"); exists {
		if username, ok := user.(string); ok && username != "" {
			return username
		}
	}

	// 其次从 Header 中读取
	if u := c.GetHeader("X-User"); u != "" {
		return u
	}

	// 默认返回 system (避免空字符串)
	return "system"
}

// errorResponse 返回错误响应
func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"message": message,
	})
}

// successResponse 返回成功响应
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

// badRequestResponse 返回 400 响应
func badRequestResponse(c *gin.Context, message string) {
	errorResponse(c, 400, message)
}

// notFoundResponse 返回 404 响应
func notFoundResponse(c *gin.Context, resource string) {
	errorResponse(c, 404, resource+" not found")
}

// internalErrorResponse 返回 500 响应
func internalErrorResponse(c *gin.Context, err error) {
	errorResponse(c, 500, err.Error())
}
