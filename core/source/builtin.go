package source

import (
	"fmt"
	"sort"
	"time"
)

// 内置聚合接口名称
const (
	GDStudio = "gdstudio"
	Lerd     = "lerd"
	Lanyin   = "lanyin"
)

const (
	DefaultGDStudioURL = "https://music-api.gdstudio.xyz/api.php"
	DefaultLerdURL     = "https://www.hhlqilongzhu.cn/api/"
	DefaultLanyinURL   = "https://source.shiqianjiang.cn/api/music"
)

// BuiltinOptions 内置聚合接口的可调参数
type BuiltinOptions struct {
	GDStudioURL  string
	LerdURL      string
	LanyinURL    string
	LanyinAPIKey string
	HostVersion  string // 拼进 lanyin 的 User-Agent
	OpenDevTools bool
}

// NewGDStudio 星海音乐源使用的 GD Studio 接口
func NewGDStudio(baseURL string) *Aggregator {
	if baseURL == "" {
		baseURL = DefaultGDStudioURL
	}
	full := []Quality{{"128k", "128"}, {"192k", "192"}, {"320k", "320"}, {"flac", "999"}, {"flac24bit", "740"}}
	return &Aggregator{
		Name:    GDStudio,
		Label:   "星海音乐源",
		BaseURL: baseURL,
		Headers: map[string]string{
			"User-Agent": "LX-Music-Mobile",
			"Accept":     "application/json",
		},
		Route: Route{
			Query: map[string]string{
				"use_xbridge3":   "true",
				"loader_name":    "forest",
				"need_sec_link":  "1",
				"sec_link_scene": "im",
				"theme":          "light",
				"types":          "url",
			},
			PlatformParam: "source",
			IDParam:       "id",
			QualityParam:  "br",
			Policy: Policy{
				Success:         FieldPresent("url"),
				CodeField:       "code",
				AuthCodes:       []int64{403},
				RateLimitCodes:  []int64{429},
				URLField:        "url",
				MessageFields:   []string{"msg", "message"},
				ErrorPrefix:     "API返回异常：",
				FallbackMessage: "无有效音频地址",
			},
		},
		Platforms: []Platform{
			{Key: "wy", Name: "网易云音乐", Code: "netease", IDField: "songmid", Qualities: full},
			{Key: "tx", Name: "QQ音乐", Code: "tencent", IDField: "songmid", Qualities: full},
			{Key: "kw", Name: "酷我音乐", Code: "kuwo", IDField: "songmid", Qualities: full},
			{Key: "kg", Name: "酷狗音乐", Code: "kugou", IDField: "songmid", Qualities: full},
			{Key: "mg", Name: "咪咕音乐", Code: "migu", IDField: "songmid", Qualities: full[:4]},
		},
		RateLimit: RateLimit{Max: 50, Window: 5 * time.Minute},
	}
}

// NewLerd 聚合API接口，每个平台一个独立端点
func NewLerd(baseURL string) *Aggregator {
	if baseURL == "" {
		baseURL = DefaultLerdURL
	}
	policy := func(successCode int64, urlField string) Policy {
		return Policy{
			Success:         CodeEquals("code", successCode),
			CodeField:       "code",
			URLField:        urlField,
			FallbackMessage: "获取链接失败",
		}
	}
	route := func(path, idParam string, p Policy) *Route {
		return &Route{Path: path, IDParam: idParam, QualityParam: "quality", Policy: p}
	}

	return &Aggregator{
		Name:    Lerd,
		Label:   "聚合API接口",
		BaseURL: baseURL,
		Platforms: []Platform{
			{
				Key: "tx", Name: "tx", IDField: "songmid",
				Qualities: []Quality{{"128k", "7"}, {"320k", "9"}, {"flac", "11"}, {"flac24bit", "14"}},
				Route:     route("dg_qqmusic.php", "songmid", policy(0, "data")),
			},
			{
				Key: "wy", Name: "wy", IDField: "songmid",
				Qualities: []Quality{{"128k", "standard"}, {"320k", "exhigh"}, {"flac", "lossless"}, {"flac24bit", "hires"}},
				Route:     route("dg_wymusic.php", "songmid", policy(200, "data")),
			},
			{
				Key: "kg", Name: "kg", IDField: "hash",
				Qualities: []Quality{{"128k", "128"}, {"320k", "320"}, {"flac", "flac"}, {"flac24bit", "flac24bit"}},
				Route:     route("dg_kgmusic.php", "hash", policy(200, "data")),
			},
			{
				Key: "kw", Name: "kw", IDField: "musicid",
				Qualities: []Quality{{"128k", "128"}, {"320k", "320"}, {"flac", "flac"}},
				Route:     route("dg_kwmusic.php", "musicid", policy(200, "data")),
			},
			{
				Key: "mg", Name: "mg", IDField: "msg",
				Qualities: []Quality{{"320k", "2"}, {"flac", "1"}},
				Actions:   []string{},
				Route:     route("dg_mgmusic_24bit.php", "msg", policy(200, "music_url")),
			},
		},
	}
}

// NewLanyin 新澜音源，平台和音质原样透传
func NewLanyin(baseURL, apiKey, hostVersion string) *Aggregator {
	if baseURL == "" {
		baseURL = DefaultLanyinURL
	}
	if hostVersion == "" {
		hostVersion = "2.0.0"
	}
	headers := map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   fmt.Sprintf("lx-music-request/%s", hostVersion),
	}
	if apiKey != "" {
		headers["X-API-Key"] = apiKey
	}

	std := []Quality{{"128k", "128k"}, {"320k", "320k"}}
	platforms := make([]Platform, 0, 6)
	for _, key := range []string{"kw", "mg", "kg", "tx", "wy", "git"} {
		platforms = append(platforms, Platform{Key: key, Name: key, Code: key, IDField: "songmid", Qualities: std})
	}

	return &Aggregator{
		Name:    Lanyin,
		Label:   "新澜音源",
		BaseURL: baseURL,
		Headers: headers,
		Route: Route{
			Path:          "/url",
			PlatformParam: "source",
			IDParam:       "songId",
			QualityParam:  "quality",
			Policy: Policy{
				Success:          CodeEquals("code", 200),
				CodeField:        "code",
				AuthCodes:        []int64{403},
				RateLimitCodes:   []int64{429},
				URLField:         "url",
				MessageFields:    []string{"message"},
				FallbackMessage:  "未知错误",
				CodePrefixes:     map[int64]string{500: "获取URL失败: "},
				AuthMessage:      "权限不足或Key失效",
				RateLimitMessage: "请求过速，请稍后再试",
			},
		},
		Platforms: platforms,
	}
}

// Builtins 返回全部内置聚合接口
func Builtins(opts BuiltinOptions) map[string]*Aggregator {
	all := map[string]*Aggregator{
		GDStudio: NewGDStudio(opts.GDStudioURL),
		Lerd:     NewLerd(opts.LerdURL),
		Lanyin:   NewLanyin(opts.LanyinURL, opts.LanyinAPIKey, opts.HostVersion),
	}
	for _, agg := range all {
		agg.OpenDevTools = opts.OpenDevTools
	}
	return all
}

// BuiltinNames 内置聚合接口名称，按字母排序
func BuiltinNames() []string {
	names := []string{GDStudio, Lerd, Lanyin}
	sort.Strings(names)
	return names
}
