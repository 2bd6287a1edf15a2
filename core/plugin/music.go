package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chengxue2020/Cat-ports/core/ratelimit"
	"github.com/chengxue2020/Cat-ports/model"
)

// MusicSource 音源插件接口
// 每个插件对接一个聚合接口，负责校验、限流和解析
type MusicSource interface {
	// Name 插件标识，例如 gdstudio
	Name() string

	// Label 宿主里显示的音源名称
	Label() string

	// Handle 处理一次宿主请求，返回播放地址
	Handle(ctx context.Context, env *model.RequestEnvelope) (string, error)

	// Inited 插件就绪时发给宿主的事件
	Inited() model.InitedEvent

	// LimitStatus 当前限流状态
	LimitStatus() ratelimit.Status
}

// Manager 音源插件管理器
type Manager struct {
	mu          sync.RWMutex
	sources     map[string]MusicSource
	defaultName string
}

// NewManager 创建插件管理器，defaultName 为默认插件
func NewManager(defaultName string) *Manager {
	return &Manager{
		sources:     make(map[string]MusicSource),
		defaultName: defaultName,
	}
}

// Register 注册插件，同名插件会被替换
func (m *Manager) Register(src MusicSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[src.Name()] = src
}

// Get 获取指定名称的插件
func (m *Manager) Get(name string) (MusicSource, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[name]
	return src, ok
}

// GetDefault 获取默认插件
func (m *Manager) GetDefault() (MusicSource, error) {
	src, ok := m.Get(m.defaultName)
	if !ok {
		return nil, fmt.Errorf("默认音源 %q 未注册", m.defaultName)
	}
	return src, nil
}

// DefaultName 默认插件名称
func (m *Manager) DefaultName() string { return m.defaultName }

// Names 已注册插件名称，按字母排序
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.sources))
	for name := range m.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle 使用默认插件处理请求
func (m *Manager) Handle(ctx context.Context, env *model.RequestEnvelope) (string, error) {
	src, err := m.GetDefault()
	if err != nil {
		return "", err
	}
	return src.Handle(ctx, env)
}
