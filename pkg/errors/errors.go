package errors

import (
	"alertflow/pkg/errors/ecode"
	"errors"
	"fmt"
)

// codeError 携带业务错误码的错误，供 response 层解码
type codeError struct {
	code int
	msg  string
	err  error
}

func (e *codeError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *codeError) Unwrap() error { return e.err }

// WithCode 创建一个带错误码的错误
func WithCode(code int, msg string) error {
	return &codeError{code: code, msg: msg}
}

// Wrap 包装底层错误并附加错误码
func Wrap(err error, code int, msg string) error {
	if err == nil {
		return nil
	}
	return &codeError{code: code, msg: msg, err: err}
}

// DecodeErr 解析错误码和提示信息，nil 表示成功
func DecodeErr(err error) (int, string) {
	if err == nil {
		return ecode.Success, ecode.Text(ecode.Success)
	}
	var ce *codeError
	if errors.As(err, &ce) {
		return ce.code, ce.Error()
	}
	return ecode.Unknown, err.Error()
}

// Code 返回错误码，非 codeError 返回 ecode.Unknown
func Code(err error) int {
	code, _ := DecodeErr(err)
	return code
}
