package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/chengxue2020/Cat-ports/core/ratelimit"
	"github.com/chengxue2020/Cat-ports/logger"
	"github.com/chengxue2020/Cat-ports/model"
)

// Dispatcher 单个聚合接口的音源适配器
// 限流器归实例所有，多个实例互不影响
type Dispatcher struct {
	agg     *Aggregator
	caps    CapabilityTable
	limiter *ratelimit.SlidingWindow
	client  *Client
}

// Option 调整 Dispatcher 的可选项
type Option func(*Dispatcher)

// WithLimiter 替换限流器
func WithLimiter(l *ratelimit.SlidingWindow) Option {
	return func(d *Dispatcher) { d.limiter = l }
}

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Dispatcher) { d.client = NewClientWith(hc) }
}

// WithTimeout 设置解析请求超时，0 表示不设超时
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.client.SetTimeout(timeout) }
}

// NewDispatcher 创建音源适配器
func NewDispatcher(agg *Aggregator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		agg:     agg,
		caps:    BuildCapabilities(agg.Platforms),
		limiter: ratelimit.NewSlidingWindow(agg.RateLimit.Max, agg.RateLimit.Window, nil),
		client:  NewClient(0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name 聚合接口名称
func (d *Dispatcher) Name() string { return d.agg.Name }

// Label 聚合接口显示名
func (d *Dispatcher) Label() string { return d.agg.Label }

// Capabilities 能力表
func (d *Dispatcher) Capabilities() CapabilityTable { return d.caps }

// Inited 初始化事件
func (d *Dispatcher) Inited() model.InitedEvent {
	return model.InitedEvent{
		Status:       true,
		OpenDevTools: d.agg.OpenDevTools,
		Sources:      BuildSources(d.agg.Platforms),
	}
}

// LimitStatus 当前限流状态，不消耗额度
func (d *Dispatcher) LimitStatus() ratelimit.Status {
	return d.limiter.Peek()
}

// Resolve 按平台、音质和歌曲信息解析播放地址
func (d *Dispatcher) Resolve(ctx context.Context, platform, quality string, musicInfo json.RawMessage) (string, error) {
	return d.Handle(ctx, &model.RequestEnvelope{
		Action: model.ActionMusicURL,
		Source: platform,
		Info: &model.RequestInfo{
			MusicInfo: musicInfo,
			Type:      quality,
		},
	})
}

// Handle 处理一次宿主请求，返回播放地址或 *Error
func (d *Dispatcher) Handle(ctx context.Context, env *model.RequestEnvelope) (string, error) {
	reqID := uuid.NewString()
	start := time.Now()

	platform := ""
	if env != nil {
		platform = env.PlatformKey()
	}
	logger.Info("[Dispatcher] 解析音频地址 开始",
		logger.String("request_id", reqID),
		logger.String("aggregator", d.agg.Name),
		logger.String("platform", platform))

	url, err := d.handle(ctx, env, reqID)
	if err != nil {
		logger.Warn("[Dispatcher] 解析音频地址 失败",
			logger.String("request_id", reqID),
			logger.String("platform", platform),
			logger.String("kind", KindOf(err).String()),
			logger.ErrorField(err),
			logger.Duration("elapsed", time.Since(start)))
		return "", err
	}

	logger.Info("[Dispatcher] 解析音频地址 成功",
		logger.String("request_id", reqID),
		logger.String("platform", platform),
		logger.Duration("elapsed", time.Since(start)))
	return url, nil
}

func (d *Dispatcher) handle(ctx context.Context, env *model.RequestEnvelope, reqID string) (string, error) {
	req, err := d.agg.Validate(env, d.caps)
	if err != nil {
		return "", err
	}

	// 校验通过后才消耗限流额度
	status := d.limiter.Check()
	if !status.Allowed {
		return "", &Error{
			Kind: KindRateLimited,
			Message: fmt.Sprintf("请求频率超限，请在 %d 分钟后重试（%d次/%d分钟）",
				status.ResetMinutes(), d.limiter.Max(), int(d.limiter.Window()/time.Minute)),
			ResetIn: status.ResetIn,
		}
	}
	if d.limiter.Max() > 0 {
		logger.Debug("[Dispatcher] 频率限制状态",
			logger.String("request_id", reqID),
			logger.Int("remaining", status.Remaining))
	}

	logger.Info("[Dispatcher] 歌曲信息",
		logger.String("request_id", reqID),
		logger.String("song", orDefault(req.SongName, "未知歌曲")),
		logger.String("track_id", req.TrackID),
		logger.String("quality", req.Quality.Key))

	httpReq, err := d.agg.Translate(ctx, req)
	if err != nil {
		return "", wrapError(KindMalformedRequest, err, "请求构建失败：%v", err)
	}

	_, body, err := d.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", wrapError(KindNetworkError, err, "网络请求超时：%v", err)
		}
		return "", wrapError(KindNetworkError, err, "网络请求异常：%v", err)
	}

	return d.agg.RouteFor(req.Platform).Policy.Map(body)
}
