package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody 统一错误响应结构
type ErrorBody struct {
	Error string `json:"error"`
}

// Success 成功响应，直接返回数据本身
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error 错误响应 {"error": msg}
func Error(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, ErrorBody{Error: msg})
}

// FieldErrors 字段级校验错误，400
func FieldErrors(c *gin.Context, fields map[string][]string) {
	c.JSON(http.StatusBadRequest, fields)
}
