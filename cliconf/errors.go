package cliconf

import (
	"errors"
	"fmt"
)

// ErrorCode 错误码类型
type ErrorCode string

const (
	// 参数相关错误，立即返回，不重试
	ErrCodeUnsupportedSource    ErrorCode = "UNSUPPORTED_SOURCE"
	ErrCodeUnsupportedFormat    ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeCheckModeUnsupported ErrorCode = "CHECK_MODE_UNSUPPORTED"
	ErrCodeMissingCommand       ErrorCode = "MISSING_COMMAND"
	ErrCodeUnsupportedOutput    ErrorCode = "UNSUPPORTED_OUTPUT"
	ErrCodeMissingCandidate     ErrorCode = "MISSING_CANDIDATE"
	ErrCodeUnsupportedReplace   ErrorCode = "UNSUPPORTED_REPLACE"
	ErrCodeUnsupportedComment   ErrorCode = "UNSUPPORTED_COMMENT"
	ErrCodePrivilegeRequired    ErrorCode = "PRIVILEGE_REQUIRED"
	ErrCodeCapabilitiesEncoding ErrorCode = "CAPABILITIES_ENCODING"
)

// CliconfError 适配器错误
type CliconfError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error 实现error接口
func (e *CliconfError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Unwrap
func (e *CliconfError) Unwrap() error {
	return e.Cause
}

// IsCode 检查错误码是否匹配
func (e *CliconfError) IsCode(code ErrorCode) bool {
	return e.Code == code
}

func newError(code ErrorCode, message string) *CliconfError {
	return &CliconfError{Code: code, Message: message}
}

func (e *CliconfError) withDetail(key string, value interface{}) *CliconfError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// GetError 获取CliconfError，如果不是则返回nil
func GetError(err error) *CliconfError {
	var ce *CliconfError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// IsErrorCode 检查错误是否为指定错误码
func IsErrorCode(err error, code ErrorCode) bool {
	if ce := GetError(err); ce != nil {
		return ce.IsCode(code)
	}
	return false
}

// IsInputError reports whether err was caused by caller input rather than the device.
func IsInputError(err error) bool {
	ce := GetError(err)
	if ce == nil {
		return false
	}
	switch ce.Code {
	case ErrCodePrivilegeRequired, ErrCodeCapabilitiesEncoding:
		return false
	default:
		return true
	}
}

func errUnsupportedSource(source string) *CliconfError {
	return newError(ErrCodeUnsupportedSource,
		fmt.Sprintf("fetching configuration from %s is not supported", source)).withDetail("source", source)
}

func errUnsupportedFormat(format, operation string) *CliconfError {
	return newError(ErrCodeUnsupportedFormat,
		fmt.Sprintf("'format' value %s is not supported for %s", format, operation)).withDetail("format", format)
}

func errUnsupportedOutput(output, operation string) *CliconfError {
	return newError(ErrCodeUnsupportedOutput,
		fmt.Sprintf("'output' value %s is not supported for %s", output, operation)).withDetail("output", output)
}

var (
	errCheckModeUnsupported = newError(ErrCodeCheckModeUnsupported, "check mode is not supported")
	errMissingCommand       = newError(ErrCodeMissingCommand, "must provide value of command to execute")
	errMissingCommands      = newError(ErrCodeMissingCommand, "'commands' value is required")
)
