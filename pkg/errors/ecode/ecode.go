package ecode

import "net/http"

// 业务错误码
const (
	Success        = 0
	Unknown        = 10000
	ValidateErr    = 10001
	NotFoundErr    = 10002
	RequireAuthErr = 10003
	DuplicateErr   = 10004
	UnavailableErr = 10005
)

var texts = map[int]string{
	Success:        "success",
	Unknown:        "unknown error",
	ValidateErr:    "invalid request",
	NotFoundErr:    "not found",
	RequireAuthErr: "unauthorized",
	DuplicateErr:   "duplicate request",
	UnavailableErr: "service unavailable",
}

func Text(code int) string {
	return texts[code]
}

// HTTPStatus 错误码对应的 http 状态码
func HTTPStatus(code int) int {
	switch code {
	case Success:
		return http.StatusOK
	case NotFoundErr:
		return http.StatusNotFound
	case RequireAuthErr:
		return http.StatusUnauthorized
	case DuplicateErr:
		return http.StatusConflict
	case UnavailableErr:
		return http.StatusServiceUnavailable
	case Unknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
