package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chengxue2020/Cat-ports/model"
)

// Request 校验通过后的解析请求
type Request struct {
	Platform *Platform
	Quality  Quality
	TrackID  string
	SongName string
}

// Validate 校验宿主请求，全部在本地完成，不发起网络请求
func (a *Aggregator) Validate(env *model.RequestEnvelope, caps CapabilityTable) (*Request, error) {
	if env == nil || env.Action != model.ActionMusicURL {
		action := ""
		if env != nil {
			action = env.Action
		}
		return nil, newError(KindUnsupportedAction, "不支持的操作类型：%s", action)
	}
	if env.Info == nil || !env.Info.HasMusicInfo() || env.Info.QualityKey() == "" {
		return nil, newError(KindMalformedRequest, "请求参数不完整")
	}

	platformKey := env.PlatformKey()
	qualityKey := env.Info.QualityKey()

	var idField string
	platform, known := a.Platform(platformKey)
	if known {
		idField = platform.IDField
	}

	trackID := TrackIdentifier(env.Info.MusicInfo, idField)
	if trackID == "" {
		return nil, newError(KindMissingIdentifier, "缺少歌曲标识符")
	}

	if !known || !caps.Supports(platformKey, qualityKey) {
		return nil, newError(KindUnsupportedCapability, "不支持的平台或音质：%s-%s", platformKey, qualityKey)
	}
	code, ok := platform.QualityCode(qualityKey)
	if !ok {
		return nil, newError(KindUnsupportedCapability, "不支持的平台或音质：%s-%s", platformKey, qualityKey)
	}

	return &Request{
		Platform: platform,
		Quality:  Quality{Key: qualityKey, Code: code},
		TrackID:  trackID,
		SongName: gjson.GetBytes(env.Info.MusicInfo, "name").String(),
	}, nil
}

// TrackIdentifier 按 hash、平台专属字段、id 的顺序取第一个非空标识
func TrackIdentifier(musicInfo []byte, platformField string) string {
	fields := []string{"hash"}
	if platformField != "" && platformField != "hash" && platformField != "id" {
		fields = append(fields, platformField)
	}
	fields = append(fields, "id")

	for _, field := range fields {
		v := gjson.GetBytes(musicInfo, gjson.Escape(field))
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// joinEndpoint 以单个斜杠拼接基础地址与路由路径，路径为空时原样返回基础地址
func joinEndpoint(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Translate 生成发往聚合接口的请求
func (a *Aggregator) Translate(ctx context.Context, r *Request) (*http.Request, error) {
	route := a.RouteFor(r.Platform)

	endpoint, err := url.Parse(joinEndpoint(a.BaseURL, route.Path))
	if err != nil {
		return nil, fmt.Errorf("接口地址无效: %w", err)
	}

	query := endpoint.Query()
	for k, v := range route.Query {
		query.Set(k, v)
	}
	if route.PlatformParam != "" {
		code := r.Platform.Code
		if code == "" {
			code = r.Platform.Key
		}
		query.Set(route.PlatformParam, code)
	}
	query.Set(route.IDParam, r.TrackID)
	query.Set(route.QualityParam, r.Quality.Code)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "lx-music-request")
	}
	return req, nil
}
