package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// parseDate 解析 YYYY-MM-DD 格式的日期字符串
func parseDate(value string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateFormat, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// normalizeDateParam 校验并规范化打卡日期参数
func normalizeDateParam(value string) (string, bool) {
	t, ok := parseDate(value)
	if !ok {
		return "", false
	}
	return t.Format(dateFormat), true
}
