package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyMap(t *testing.T) {
	t.Parallel()

	gd := NewGDStudio("").Route.Policy
	lanyin := NewLanyin("", "", "").Route.Policy
	lerd := NewLerd("")
	lerdTx, _ := lerd.Platform("tx")
	lerdWy, _ := lerd.Platform("wy")
	lerdMg, _ := lerd.Platform("mg")

	tests := []struct {
		name    string
		policy  Policy
		body    string
		url     string
		kind    Kind
		message string
	}{
		{name: "gdstudio url present", policy: gd, body: `{"url":"http://x/y.mp3","br":999}`, url: "http://x/y.mp3"},
		{name: "gdstudio code 200 with url", policy: gd, body: `{"code":200,"url":"http://x/y.mp3"}`, url: "http://x/y.mp3"},
		{name: "gdstudio empty url with msg", policy: gd, body: `{"url":"","msg":"版权限制"}`, kind: KindUpstreamError, message: "API返回异常：版权限制"},
		{name: "gdstudio missing url", policy: gd, body: `{}`, kind: KindUpstreamError, message: "API返回异常：无有效音频地址"},
		{name: "gdstudio forbidden", policy: gd, body: `{"code":403}`, kind: KindAuthFailure},
		{name: "gdstudio throttled", policy: gd, body: `{"code":429}`, kind: KindUpstreamRateLimited},
		{name: "not json", policy: gd, body: `<html>502</html>`, kind: KindMalformedResponse},
		{name: "json array", policy: gd, body: `[1,2]`, kind: KindMalformedResponse},
		{name: "lanyin success", policy: lanyin, body: `{"code":200,"url":"http://a/b"}`, url: "http://a/b"},
		{name: "lanyin key invalid", policy: lanyin, body: `{"code":403}`, kind: KindAuthFailure, message: "权限不足或Key失效"},
		{name: "lanyin too fast", policy: lanyin, body: `{"code":429}`, kind: KindUpstreamRateLimited, message: "请求过速，请稍后再试"},
		{name: "lanyin server error", policy: lanyin, body: `{"code":500,"message":"boom"}`, kind: KindUpstreamError, message: "获取URL失败: boom"},
		{name: "lanyin server error without message", policy: lanyin, body: `{"code":500}`, kind: KindUpstreamError, message: "获取URL失败: 未知错误"},
		{name: "lanyin other code keeps bare message", policy: lanyin, body: `{"code":502,"message":"boom"}`, kind: KindUpstreamError, message: "boom"},
		{name: "lanyin success without url", policy: lanyin, body: `{"code":200}`, kind: KindUpstreamError, message: "未知错误"},
		{name: "lanyin no code", policy: lanyin, body: `{"url":"http://a/b"}`, kind: KindUpstreamError},
		{name: "lerd tx code zero", policy: lerdTx.Route.Policy, body: `{"code":0,"data":"http://q/1"}`, url: "http://q/1"},
		{name: "lerd tx code 200 is failure", policy: lerdTx.Route.Policy, body: `{"code":200,"data":"http://q/1"}`, kind: KindUpstreamError, message: "获取链接失败"},
		{name: "lerd tx missing code", policy: lerdTx.Route.Policy, body: `{"data":"http://q/1"}`, kind: KindUpstreamError},
		{name: "lerd wy code 200", policy: lerdWy.Route.Policy, body: `{"code":200,"data":"http://w/1"}`, url: "http://w/1"},
		{name: "lerd mg music_url", policy: lerdMg.Route.Policy, body: `{"code":200,"music_url":"http://m/1"}`, url: "http://m/1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			url, err := tt.policy.Map([]byte(tt.body))
			if tt.kind == KindUnknown {
				require.NoError(t, err)
				assert.Equal(t, tt.url, url)
				return
			}

			require.Error(t, err)
			assert.Empty(t, url)
			assert.Equal(t, tt.kind, KindOf(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}
}
