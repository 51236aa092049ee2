package middleware

import (
	"alertflow/internal/consts"
	"alertflow/pkg/logger"
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

// 请求体超过该长度不打印
const maxLoggedBody = 4096

func Logger(c *gin.Context) {
	// 请求前
	t := time.Now()
	reqPath := c.Request.URL.Path
	reqId := c.GetString(consts.RequestId)
	method := c.Request.Method
	ip := c.ClientIP()
	var requestBody []byte
	if c.Request.Body != nil {
		var err error
		requestBody, err = io.ReadAll(c.Request.Body)
		if err != nil {
			requestBody = []byte{}
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
	}
	if len(requestBody) > maxLoggedBody {
		requestBody = requestBody[:maxLoggedBody]
	}

	logger.Info("[Request Start]",
		logger.Pair(consts.RequestId, reqId),
		logger.Pair("host", ip),
		logger.Pair("path", reqPath),
		logger.Pair("method", method))
	// 告警 body 里有策略 key，只在 debug 级别输出
	logger.Debug("[Request Body]",
		logger.Pair(consts.RequestId, reqId),
		logger.Pair("body", string(requestBody)))

	c.Next()
	// 请求后
	latency := time.Since(t)
	logger.Info("[Request End]",
		logger.Pair(consts.RequestId, reqId),
		logger.Pair("host", ip),
		logger.Pair("path", reqPath),
		logger.Pair("status", c.Writer.Status()),
		logger.Pair("cost", latency))
}
