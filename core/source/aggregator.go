// Package source 音源适配：能力表、请求校验与转换、聚合接口调用和响应码映射
package source

import (
	"time"
)

// Quality 宿主音质标识与接口参数的对应
type Quality struct {
	Key  string
	Code string
}

// Route 一个聚合接口端点
type Route struct {
	Path          string            // 拼接在 BaseURL 之后
	Query         map[string]string // 固定参数
	PlatformParam string            // 为空时不传平台参数
	IDParam       string
	QualityParam  string
	Policy        Policy
}

// Platform 单个音乐平台的配置
type Platform struct {
	Key       string // 宿主平台标识，如 wy
	Name      string // 界面显示名
	Code      string // 接口的平台参数，如 netease
	IDField   string // 平台专属的歌曲标识字段，如 songmid
	Qualities []Quality
	Actions   []string // nil 表示只支持 musicUrl
	Route     *Route   // 覆盖聚合器默认路由
}

// QualityCode 查找音质对应的接口参数
func (p *Platform) QualityCode(key string) (string, bool) {
	for _, q := range p.Qualities {
		if q.Key == key {
			return q.Code, true
		}
	}
	return "", false
}

// QualityKeys 有序的音质列表
func (p *Platform) QualityKeys() []string {
	keys := make([]string, len(p.Qualities))
	for i, q := range p.Qualities {
		keys[i] = q.Key
	}
	return keys
}

// RateLimit 本地限流配置，Max 为 0 表示不限流
type RateLimit struct {
	Max    int
	Window time.Duration
}

// Aggregator 一个第三方聚合接口的完整配置
// 每个聚合接口的成功码约定各不相同，统一放在各自的 Policy 里
type Aggregator struct {
	Name         string
	Label        string
	BaseURL      string
	Headers      map[string]string
	Route        Route
	Platforms    []Platform
	RateLimit    RateLimit
	OpenDevTools bool
}

// Platform 按标识查找平台
func (a *Aggregator) Platform(key string) (*Platform, bool) {
	for i := range a.Platforms {
		if a.Platforms[i].Key == key {
			return &a.Platforms[i], true
		}
	}
	return nil, false
}

// RouteFor 返回平台使用的路由
func (a *Aggregator) RouteFor(p *Platform) *Route {
	if p.Route != nil {
		return p.Route
	}
	return &a.Route
}
