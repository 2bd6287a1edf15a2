package model

import "encoding/json"

// ActionMusicURL 唯一支持的请求动作
const ActionMusicURL = "musicUrl"

// RequestEnvelope 宿主发来的请求事件
// 平台字段在宿主里叫 source，部分宿主写作 platform，两者取其一
type RequestEnvelope struct {
	Action   string       `json:"action"`
	Source   string       `json:"source,omitempty"`
	Platform string       `json:"platform,omitempty"`
	Info     *RequestInfo `json:"info,omitempty"`
}

// RequestInfo 请求携带的歌曲信息和音质
type RequestInfo struct {
	MusicInfo json.RawMessage `json:"musicInfo,omitempty"`
	Type      string          `json:"type,omitempty"`
	Quality   string          `json:"quality,omitempty"` // 部分宿主版本用 quality 代替 type
}

// PlatformKey 返回请求的平台标识
func (e *RequestEnvelope) PlatformKey() string {
	if e.Source != "" {
		return e.Source
	}
	return e.Platform
}

// QualityKey 返回请求的音质标识
func (i *RequestInfo) QualityKey() string {
	if i.Type != "" {
		return i.Type
	}
	return i.Quality
}

// HasMusicInfo 判断 musicInfo 是否为非空对象
func (i *RequestInfo) HasMusicInfo() bool {
	if len(i.MusicInfo) == 0 {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(i.MusicInfo, &probe); err != nil {
		return false
	}
	return probe != nil
}

// ResolveResult 一次解析的结果，成功时只有 URL
type ResolveResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}
