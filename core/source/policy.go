package source

import (
	"github.com/tidwall/gjson"
)

// SuccessFunc 判断聚合接口的响应是否表示成功
type SuccessFunc func(doc gjson.Result) bool

// CodeEquals 状态码字段存在且等于 code
func CodeEquals(field string, code int64) SuccessFunc {
	return func(doc gjson.Result) bool {
		v := doc.Get(field)
		return v.Exists() && v.Type == gjson.Number && v.Int() == code
	}
}

// FieldPresent 字段存在且非空即成功
func FieldPresent(field string) SuccessFunc {
	return func(doc gjson.Result) bool {
		v := doc.Get(field)
		return v.Exists() && v.String() != ""
	}
}

// Policy 聚合接口的响应码约定
type Policy struct {
	Success          SuccessFunc
	CodeField        string
	AuthCodes        []int64
	RateLimitCodes   []int64
	URLField         string
	MessageFields    []string
	ErrorPrefix      string
	FallbackMessage  string
	CodePrefixes     map[int64]string // 按错误码覆盖 ErrorPrefix
	AuthMessage      string
	RateLimitMessage string
}

// Map 把响应体映射为播放地址或带类型的失败
func (p Policy) Map(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", newError(KindMalformedResponse, "接口返回数据格式错误")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return "", newError(KindMalformedResponse, "接口返回数据格式错误")
	}

	url := doc.Get(p.urlField()).String()
	if p.isSuccess(doc) && url != "" {
		return url, nil
	}

	prefix := p.ErrorPrefix
	if p.CodeField != "" {
		if code := doc.Get(p.CodeField); code.Exists() {
			c := code.Int()
			if containsCode(p.AuthCodes, c) {
				return "", newError(KindAuthFailure, "%s", orDefault(p.AuthMessage, "权限不足或Key失效"))
			}
			if containsCode(p.RateLimitCodes, c) {
				return "", newError(KindUpstreamRateLimited, "%s", orDefault(p.RateLimitMessage, "请求过速，请稍后再试"))
			}
			if cp, ok := p.CodePrefixes[c]; ok {
				prefix = cp
			}
		}
	}

	msg := p.message(doc)
	if msg == "" {
		msg = orDefault(p.FallbackMessage, "未知错误")
	}
	return "", newError(KindUpstreamError, "%s%s", prefix, msg)
}

func (p Policy) isSuccess(doc gjson.Result) bool {
	if p.Success == nil {
		return FieldPresent(p.urlField())(doc)
	}
	return p.Success(doc)
}

func (p Policy) urlField() string {
	if p.URLField == "" {
		return "url"
	}
	return p.URLField
}

func (p Policy) message(doc gjson.Result) string {
	for _, field := range p.MessageFields {
		if v := doc.Get(field); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func containsCode(codes []int64, c int64) bool {
	for _, code := range codes {
		if code == c {
			return true
		}
	}
	return false
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
