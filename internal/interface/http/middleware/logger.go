package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xiebiao/library/pkg/logger"
)

// HeaderRequestID 请求ID响应头
const HeaderRequestID = "X-Request-ID"

// slowRequest 超过此耗时记录WARN
const slowRequest = 3 * time.Second

// RequestLogger 请求日志中间件
// 1. 沿用上游的X-Request-ID，没有时生成UUID
// 2. 请求ID写入ctx，后续日志自动携带
// 3. 请求结束记录方法、路由、状态码、耗时、客户端IP
// 4. 慢请求记录WARN
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)
		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency", latency,
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case latency > slowRequest:
			level = slog.LevelWarn
			attrs = append(attrs, "slow", true)
		}
		logger.FromContext(ctx).Log(ctx, level, "HTTP请求", attrs...)
	}
}
