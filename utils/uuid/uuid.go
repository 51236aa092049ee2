package uuid

import (
	"strings"

	"github.com/google/uuid"
)

// GenUUID 生成标准 uuid 字符串
func GenUUID() string {
	return uuid.NewString()
}

// GenUUID16 生成16位的短 uuid，用于 request id
func GenUUID16() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// IsValid 校验是否为合法的 uuid
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
