package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsportal/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondValidation(c *gin.Context, errs service.ValidationErrors) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  errs,
	})
}

// handleServiceError 将 service 层错误映射为 HTTP 响应。
func handleServiceError(c *gin.Context, err error, fallback string) {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respondValidation(c, verrs)
	case errors.Is(err, service.ErrArticleNotFound):
		respondError(c, http.StatusNotFound, "Article not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "Category not found")
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrUnauthenticated):
		rejectUnauthenticated(c)
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// rejectUnauthenticated 浏览器请求跳转登录页，JSON 客户端返回 401。
func rejectUnauthenticated(c *gin.Context) {
	if wantsJSON(c) {
		respondError(c, http.StatusUnauthorized, "Unauthenticated.")
	} else {
		c.Redirect(http.StatusFound, "/login")
	}
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") || strings.Contains(accept, "+json")
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parsePositiveInt(value string, fallback int) int {
	num, err := strconv.Atoi(value)
	if err != nil || num <= 0 {
		return fallback
	}
	return num
}

// requestFields 从表单或 JSON 请求体读取字段，未出现的字段为 nil；JSON null 视为空字符串。
func requestFields(c *gin.Context, names ...string) (map[string]*string, error) {
	fields := make(map[string]*string, len(names))

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
			return nil, err
		}
		for _, name := range names {
			raw, ok := body[name]
			if !ok {
				continue
			}
			value := ""
			if raw != nil {
				if s, isString := raw.(string); isString {
					value = s
				} else {
					value = fmt.Sprint(raw)
				}
			}
			fields[name] = &value
		}
		return fields, nil
	}

	for _, name := range names {
		if value, ok := c.GetPostForm(name); ok {
			v := value
			fields[name] = &v
		}
	}
	return fields, nil
}

func fieldValue(fields map[string]*string, name string) string {
	if value := fields[name]; value != nil {
		return *value
	}
	return ""
}

// LogErrors 在请求结束后输出通过 c.Error 记录的非致命错误。
func LogErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			log.Printf("[%s %s] %v", c.Request.Method, c.FullPath(), e.Err)
		}
	}
}
