package server

import (
	"fmt"

	"github.com/chengxue2020/Cat-ports/config"
	"github.com/chengxue2020/Cat-ports/core/plugin"
	"github.com/chengxue2020/Cat-ports/core/ratelimit"
	"github.com/chengxue2020/Cat-ports/core/source"
	"github.com/chengxue2020/Cat-ports/core/update"
)

// hostVersion 拼进 lanyin 请求 User-Agent 的宿主版本
const hostVersion = "2.0.0"

// BuildManager 按配置注册全部内置音源
// RATE_LIMIT_* 只作用于 SOURCE_AGGREGATOR 选中的音源，其余沿用各自的默认值
func BuildManager(cfg *config.Config) (*plugin.Manager, error) {
	aggs := source.Builtins(source.BuiltinOptions{
		GDStudioURL:  cfg.GDStudioAPIURL,
		LerdURL:      cfg.LerdAPIURL,
		LanyinURL:    cfg.LanyinAPIURL,
		LanyinAPIKey: cfg.LanyinAPIKey,
		HostVersion:  hostVersion,
		OpenDevTools: cfg.OpenDevTools,
	})
	if _, ok := aggs[cfg.Aggregator]; !ok {
		return nil, fmt.Errorf("unknown aggregator %q, want one of %v", cfg.Aggregator, source.BuiltinNames())
	}

	m := plugin.NewManager(cfg.Aggregator)
	for name, agg := range aggs {
		opts := []source.Option{source.WithTimeout(cfg.ResolveTimeout)}
		if name == cfg.Aggregator {
			opts = append(opts, source.WithLimiter(ratelimit.NewSlidingWindow(cfg.RateLimitMax, cfg.RateLimitWindow, nil)))
		}
		m.Register(source.NewDispatcher(agg, opts...))
	}
	return m, nil
}

// BuildNotifier 未开启更新检查或没有配置版本地址时返回 nil
func BuildNotifier(cfg *config.Config, plugins *plugin.Manager, sender update.Sender) *update.Notifier {
	if !cfg.UpdateEnabled || cfg.UpdateVersionURL == "" {
		return nil
	}

	name := ""
	if src, err := plugins.GetDefault(); err == nil {
		name = src.Label()
	}

	return update.NewNotifier(update.Config{
		Name:           name,
		VersionURL:     cfg.UpdateVersionURL,
		ScriptURL:      cfg.UpdateScriptURL,
		CurrentVersion: cfg.CurrentVersion,
		Format:         update.Format(cfg.UpdateFormat),
		Timeout:        cfg.UpdateTimeout,
		Delay:          cfg.UpdateDelay,
	}, sender)
}
