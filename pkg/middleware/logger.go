package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger はリクエストごとにアクセスログを出力するGinミドルウェアを返す。
// Authorizationヘッダーの値は出力しない。
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error("リクエストを処理しました", attrs...)
		case status >= 400:
			logger.Warn("リクエストを処理しました", attrs...)
		default:
			logger.Info("リクエストを処理しました", attrs...)
		}
	}
}
