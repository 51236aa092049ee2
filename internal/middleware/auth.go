package middleware

import (
	"alertflow/internal/consts"
	"alertflow/pkg/response"
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

// ApiKeyAuth 管理接口鉴权：Authorization 头必须等于配置的 api_key
func ApiKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(consts.HeaderAuthorization)
		if got == "" {
			response.RequireAuthErr(c, errors.New("missing authorization header"))
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			response.RequireAuthErr(c, errors.New("invalid api key"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// WebhookSignature 校验 X-Signature (hex hmac-sha256(body))，secret 为空时不校验
func WebhookSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		signature := c.GetHeader(consts.HeaderSignature)
		if signature == "" {
			response.RequireAuthErr(c, errors.New("missing signature"))
			c.Abort()
			return
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.RequireAuthErr(c, errors.New("failed to read body"))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		if !VerifySignature(body, signature, secret) {
			response.RequireAuthErr(c, errors.New("invalid signature"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func VerifySignature(body []byte, signatureHeader, secret string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expectedMAC := h.Sum(nil)
	providedMAC, err := hex.DecodeString(signatureHeader)
	if err != nil {
		return false
	}
	return hmac.Equal(providedMAC, expectedMAC)
}
