package response

import "errors"

// AppError 统一错误包装，Key 为国际化消息键
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewKeyedError 以消息键构造错误，消息在响应阶段按语言翻译
func NewKeyedError(code int, key string, err error) *AppError {
	return &AppError{
		Code: code,
		Key:  key,
		Err:  err,
	}
}

// AsAppError 提取错误链中的 AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
