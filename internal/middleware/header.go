package middleware

import (
	"alertflow/internal/consts"
	"alertflow/pkg/response"
	"alertflow/utils/uuid"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
)

// NoCache 控制客户端不要使用缓存
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, max-age=0, must-revalidate")
		c.Header("Expires", "Thu, 01 Jan 1970 00:00:00 GMT")
		c.Header("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		c.Next()
	}
}

// Options
func Options() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.ToUpper(c.Request.Method) != "OPTIONS" {
			c.Next()
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			c.Header("Access-Control-Allow-Headers", "authorization, origin, content-type, accept, x-signature")
			c.Header("Allow", "HEAD,GET,POST,DELETE,OPTIONS")
			c.Header("Content-Type", "application/json")
			c.AbortWithStatus(http.StatusOK)
		}
	}
}

// Secure 添加安全控制和资源访问
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000")
		}
		c.Next()
	}
}

// RequestId 用来设置和透传requestId，上游已带则沿用
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(consts.HeaderRequestId)
		if requestId == "" || len(requestId) > 64 {
			requestId = uuid.GenUUID16()
		}
		c.Header(consts.HeaderRequestId, requestId)

		// 设置requestId到context中，便于后面调用链的透传
		c.Set(consts.RequestId, requestId)
		c.Next()
	}
}

// AntiDuplicate 防止单个客户端 IP 在 window 内重复请求同一接口
// 只用于管理接口，不能用于 webhook：同一时刻的多个告警来自同一个 IP
func AntiDuplicate(size int, window time.Duration) gin.HandlerFunc {
	// 并发安全的 LRU 缓存
	reqCache, _ := lru.New(size)
	return func(c *gin.Context) {
		// 使用IP + 方法 + 请求地址 作为key 防抖动
		key := c.ClientIP() + c.Request.Method + c.Request.URL.RequestURI()
		if value, ok := reqCache.Get(key); ok {
			if time.Since(value.(time.Time)) < window {
				response.TooManyRequests(c)
				c.Abort()
				return
			}
		}

		// 更新时间戳 (Hit 或 Miss 都会更新)
		reqCache.Add(key, time.Now())
		c.Next()
	}
}
