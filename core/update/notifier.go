// Package update 实现启动后的版本检查和更新提示
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chengxue2020/Cat-ports/logger"
	"github.com/chengxue2020/Cat-ports/model"
)

// Format 版本描述的格式
type Format string

const (
	FormatJSON   Format = "json"   // {"version","changelog","min_required"}
	FormatText   Format = "text"   // 版本号|更新日志
	FormatLanyin Format = "lanyin" // {"code":200,"data":{"updateMsg","updateUrl"}}
)

// State 检查状态
type State int

const (
	StateIdle State = iota
	StateChecking
	StateUpToDate
	StateUpdateAvailable
	StateCheckFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateUpToDate:
		return "up_to_date"
	case StateUpdateAvailable:
		return "update_available"
	case StateCheckFailed:
		return "check_failed"
	default:
		return "unknown"
	}
}

// Sender 向宿主发送事件
type Sender interface {
	Send(name model.EventName, payload any)
}

// Config 更新检查配置
type Config struct {
	Name           string // 通知标题里的音源名称
	VersionURL     string
	ScriptURL      string
	CurrentVersion string
	Format         Format
	UserAgent      string
	Timeout        time.Duration
	Delay          time.Duration
}

// Descriptor 远端版本信息
type Descriptor struct {
	Version     string
	Changelog   string
	MinRequired string
	UpdateURL   string
}

var errNoUpdate = errors.New("no update")

// Notifier 一次性的更新检查
// 检查失败只记日志，不会返回错误，也不会阻塞调用方
type Notifier struct {
	cfg    Config
	client *http.Client
	sender Sender

	mu    sync.RWMutex
	state State

	once sync.Once
	done chan struct{}
}

// NewNotifier 创建更新检查器
func NewNotifier(cfg Config, sender Sender) *Notifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if cfg.Name == "" {
		cfg.Name = "星海音乐源"
	}
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		sender: sender,
		done:   make(chan struct{}),
	}
}

// State 当前状态
func (n *Notifier) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Done 首次检查结束后关闭
func (n *Notifier) Done() <-chan struct{} {
	return n.done
}

func (n *Notifier) setState(s State) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

// Start 延迟 Delay 后在后台执行检查，立即返回
func (n *Notifier) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(n.cfg.Delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			n.Check(ctx)
		case <-ctx.Done():
			logger.Info("[Update] 启动前已取消检查")
			n.once.Do(func() { close(n.done) })
		}
	}()
}

// Check 同步执行一次检查并返回结束状态
func (n *Notifier) Check(ctx context.Context) (final State) {
	defer n.once.Do(func() { close(n.done) })
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[Update] 检查更新时发生异常", logger.Any("panic", r))
			final = StateCheckFailed
			n.setState(final)
		}
	}()

	n.setState(StateChecking)
	logger.Info("[Update] 开始检查更新", logger.String("url", n.cfg.VersionURL))

	desc, err := n.fetch(ctx)
	if errors.Is(err, errNoUpdate) {
		logger.Info("[Update] 当前已是最新版本", logger.String("version", n.cfg.CurrentVersion))
		n.setState(StateUpToDate)
		return StateUpToDate
	}
	if err != nil {
		logger.Warn("[Update] 更新检查失败", logger.ErrorField(err))
		n.setState(StateCheckFailed)
		return StateCheckFailed
	}

	if n.cfg.Format != FormatLanyin && !IsNewer(desc.Version, n.cfg.CurrentVersion) {
		logger.Info("[Update] 当前已是最新版本", logger.String("version", n.cfg.CurrentVersion))
		n.setState(StateUpToDate)
		return StateUpToDate
	}

	logger.Info("[Update] 发现新版本",
		logger.String("remote", desc.Version),
		logger.String("current", n.cfg.CurrentVersion))

	if n.sender != nil {
		n.sender.Send(model.EventUpdateAlert, n.notice(desc))
	}
	n.setState(StateUpdateAvailable)
	return StateUpdateAvailable
}

// notice 组装更新提示
func (n *Notifier) notice(desc *Descriptor) model.UpdateAlertEvent {
	if n.cfg.Format == FormatLanyin {
		return model.UpdateAlertEvent{
			Log:       desc.Changelog,
			UpdateURL: desc.UpdateURL,
		}
	}

	force := false
	if desc.MinRequired != "" {
		force = IsNewer(desc.Version, desc.MinRequired) && IsNewer(desc.MinRequired, n.cfg.CurrentVersion)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "【%s更新通知】\n当前版本：%s\n最新版本：%s\n\n更新内容：\n%s",
		n.cfg.Name, n.cfg.CurrentVersion, desc.Version, desc.Changelog)
	cancel := "暂不更新"
	if force {
		b.WriteString("\n\n⚠️ 此版本需要强制更新，请立即更新以正常使用")
		cancel = "退出应用"
	}

	return model.UpdateAlertEvent{
		Log:         b.String(),
		UpdateURL:   n.cfg.ScriptURL,
		ConfirmText: "立即更新",
		CancelText:  cancel,
	}
}

func (n *Notifier) fetch(ctx context.Context) (*Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.cfg.VersionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if n.cfg.Format == FormatText {
		req.Header.Set("Content-Type", "text/plain")
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	if n.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", n.cfg.UserAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("网络请求异常: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	switch n.cfg.Format {
	case FormatText:
		return ParseText(string(body))
	case FormatLanyin:
		return parseLanyin(body)
	default:
		return ParseJSON(body)
	}
}

// ParseJSON 解析 JSON 版本描述
func ParseJSON(body []byte) (*Descriptor, error) {
	var payload struct {
		Version     string `json:"version"`
		Changelog   string `json:"changelog"`
		MinRequired string `json:"min_required"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("版本接口返回数据格式错误: %w", err)
	}
	if payload.Version == "" {
		return nil, errors.New("版本接口未返回版本号")
	}
	if payload.Changelog == "" {
		payload.Changelog = "暂无更新日志"
	}
	if payload.MinRequired == "" {
		payload.MinRequired = "v1.0.0"
	}
	return &Descriptor{
		Version:     payload.Version,
		Changelog:   payload.Changelog,
		MinRequired: payload.MinRequired,
	}, nil
}

// ParseText 解析 "版本号|更新日志" 格式
func ParseText(body string) (*Descriptor, error) {
	text := strings.TrimSpace(body)
	if !strings.Contains(text, "|") {
		return nil, errors.New("版本文件格式错误，应为：版本号|更新日志")
	}
	parts := strings.Split(text, "|")
	version := strings.TrimSpace(parts[0])
	changelog := strings.TrimSpace(parts[1])
	if version == "" || changelog == "" {
		return nil, errors.New("版本文件内容不完整")
	}
	return &Descriptor{Version: version, Changelog: changelog}, nil
}

func parseLanyin(body []byte) (*Descriptor, error) {
	var payload struct {
		Code int `json:"code"`
		Data *struct {
			UpdateMsg string `json:"updateMsg"`
			UpdateURL string `json:"updateUrl"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("版本接口返回数据格式错误: %w", err)
	}
	if payload.Code != http.StatusOK {
		return nil, fmt.Errorf("版本接口返回错误码: %d", payload.Code)
	}
	if payload.Data == nil {
		return nil, errNoUpdate
	}
	return &Descriptor{
		Changelog: payload.Data.UpdateMsg,
		UpdateURL: payload.Data.UpdateURL,
	}, nil
}
