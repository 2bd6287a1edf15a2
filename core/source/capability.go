package source

import (
	"github.com/chengxue2020/Cat-ports/model"
)

// CapabilityTable 平台到有序音质列表的映射，构建后只读
type CapabilityTable map[string][]string

// BuildCapabilities 由平台配置生成能力表，只收录支持 musicUrl 的平台
func BuildCapabilities(platforms []Platform) CapabilityTable {
	table := make(CapabilityTable, len(platforms))
	for i := range platforms {
		p := &platforms[i]
		if !supportsAction(p, model.ActionMusicURL) {
			continue
		}
		table[p.Key] = p.QualityKeys()
	}
	return table
}

// Supports 判断 (平台, 音质) 是否在能力表中
func (t CapabilityTable) Supports(platform, quality string) bool {
	for _, q := range t[platform] {
		if q == quality {
			return true
		}
	}
	return false
}

// BuildSources 生成 inited 事件里的音源列表
func BuildSources(platforms []Platform) map[string]model.SourceInfo {
	sources := make(map[string]model.SourceInfo, len(platforms))
	for i := range platforms {
		p := &platforms[i]
		name := p.Name
		if name == "" {
			name = p.Key
		}
		sources[p.Key] = model.SourceInfo{
			Name:     name,
			Type:     "music",
			Actions:  actionsOf(p),
			Qualitys: p.QualityKeys(),
		}
	}
	return sources
}

func actionsOf(p *Platform) []string {
	if p.Actions == nil {
		return []string{model.ActionMusicURL}
	}
	return append([]string{}, p.Actions...)
}

func supportsAction(p *Platform, action string) bool {
	for _, a := range actionsOf(p) {
		if a == action {
			return true
		}
	}
	return false
}
