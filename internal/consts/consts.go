package consts

const (
	// RequestId 请求id名称
	RequestId = "request_id"
)

const (
	HeaderRequestId     = "X-Request-Id"
	HeaderSignature     = "X-Signature"
	HeaderAuthorization = "Authorization"

	TimeLayout = "2006-01-02 15:04:05"
)

const (
	// 分页默认值
	DefaultPageLimit = 20
	MaxPageLimit     = 200
)
