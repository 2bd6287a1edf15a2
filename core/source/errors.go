package source

import (
	"errors"
	"fmt"
	"time"
)

// Kind 解析失败的种类
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedAction
	KindMalformedRequest
	KindMissingIdentifier
	KindUnsupportedCapability
	KindRateLimited
	KindNetworkError
	KindMalformedResponse
	KindAuthFailure
	KindUpstreamRateLimited
	KindUpstreamError
)

var kindNames = map[Kind]string{
	KindUnknown:               "Unknown",
	KindUnsupportedAction:     "UnsupportedAction",
	KindMalformedRequest:      "MalformedRequest",
	KindMissingIdentifier:     "MissingIdentifier",
	KindUnsupportedCapability: "UnsupportedCapability",
	KindRateLimited:           "RateLimited",
	KindNetworkError:          "NetworkError",
	KindMalformedResponse:     "MalformedResponse",
	KindAuthFailure:           "AuthFailure",
	KindUpstreamRateLimited:   "UpstreamRateLimited",
	KindUpstreamError:         "UpstreamError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error 一次解析的失败结果
// Message 是最终交给宿主的文本
type Error struct {
	Kind    Kind
	Message string
	ResetIn time.Duration // 仅 KindRateLimited 使用
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按种类匹配，errors.Is(err, ErrAuthFailure) 对任意鉴权失败都成立
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// 用于 errors.Is 的哨兵值
var (
	ErrUnsupportedAction     = &Error{Kind: KindUnsupportedAction}
	ErrMalformedRequest      = &Error{Kind: KindMalformedRequest}
	ErrMissingIdentifier     = &Error{Kind: KindMissingIdentifier}
	ErrUnsupportedCapability = &Error{Kind: KindUnsupportedCapability}
	ErrRateLimited           = &Error{Kind: KindRateLimited}
	ErrNetworkError          = &Error{Kind: KindNetworkError}
	ErrMalformedResponse     = &Error{Kind: KindMalformedResponse}
	ErrAuthFailure           = &Error{Kind: KindAuthFailure}
	ErrUpstreamRateLimited   = &Error{Kind: KindUpstreamRateLimited}
	ErrUpstreamError         = &Error{Kind: KindUpstreamError}
)

// KindOf 取出错误的种类，非 *Error 返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
