package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/chengxue2020/Cat-ports/core/host"
	"github.com/chengxue2020/Cat-ports/core/plugin"
	"github.com/chengxue2020/Cat-ports/core/source"
	"github.com/chengxue2020/Cat-ports/logger"
	"github.com/chengxue2020/Cat-ports/model"
)

const maxRequestBody = 64 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AggregatorInfo 可用音源
type AggregatorInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

// SourcesResponse 音源能力和限流状态
type SourcesResponse struct {
	Aggregator string                      `json:"aggregator"`
	Label      string                      `json:"label"`
	Sources    map[string]model.SourceInfo `json:"sources"`
	RateLimit  RateLimitInfo               `json:"rateLimit"`
}

// RateLimitInfo 限流状态，resetIn 单位为秒
type RateLimitInfo struct {
	Remaining int   `json:"remaining"`
	ResetIn   int64 `json:"resetIn"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("[Server] 写入响应失败", logger.ErrorField(err))
	}
}

// HealthHandler GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

// AggregatorsHandler GET /api/aggregators
func (s *Server) AggregatorsHandler(w http.ResponseWriter, r *http.Request) {
	names := s.plugins.Names()
	list := make([]AggregatorInfo, 0, len(names))
	for _, name := range names {
		src, _ := s.plugins.Get(name)
		list = append(list, AggregatorInfo{
			Name:    name,
			Label:   src.Label(),
			Default: name == s.plugins.DefaultName(),
		})
	}
	writeJSON(w, http.StatusOK, list)
}

// SourcesHandler GET /api/sources?aggregator=
func (s *Server) SourcesHandler(w http.ResponseWriter, r *http.Request) {
	src, ok := s.pick(w, r)
	if !ok {
		return
	}

	status := src.LimitStatus()
	writeJSON(w, http.StatusOK, SourcesResponse{
		Aggregator: src.Name(),
		Label:      src.Label(),
		Sources:    src.Inited().Sources,
		RateLimit: RateLimitInfo{
			Remaining: status.Remaining,
			ResetIn:   int64(status.ResetIn.Seconds()),
		},
	})
}

// RequestHandler POST /api/request?aggregator=，请求体为宿主请求事件
func (s *Server) RequestHandler(w http.ResponseWriter, r *http.Request) {
	src, ok := s.pick(w, r)
	if !ok {
		return
	}

	var env model.RequestEnvelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ResolveResult{Success: false, Error: "请求参数不完整"})
		return
	}

	url, err := src.Handle(r.Context(), &env)
	if err != nil {
		var se *source.Error
		if errors.As(err, &se) && se.Kind == source.KindRateLimited && se.ResetIn > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(se.ResetIn.Seconds())))
		}
		writeJSON(w, statusFor(source.KindOf(err)), model.ResolveResult{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, model.ResolveResult{Success: true, URL: url})
}

// WebSocketHandler GET /ws，连接建立后补发最近的 inited 和 updateAlert
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[Server] WebSocket 升级失败", logger.ErrorField(err))
		return
	}

	client := host.NewClient(s.hub, conn)
	s.hub.Register(client)

	go client.WritePump()
	// 请求上下文在处理函数返回后就会取消
	go client.ReadPump(context.Background(), s.hub.HandleMessage)

	logger.Info("[Server] WebSocket 连接建立",
		logger.String("client", client.ID),
		logger.String("remote", r.RemoteAddr))
}

// pick 选出 aggregator 参数指定的音源，缺省为默认音源
func (s *Server) pick(w http.ResponseWriter, r *http.Request) (plugin.MusicSource, bool) {
	name := r.URL.Query().Get("aggregator")
	if name == "" {
		name = s.plugins.DefaultName()
	}
	src, ok := s.plugins.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, model.ResolveResult{Success: false, Error: "未知音源：" + name})
		return nil, false
	}
	return src, true
}

// statusFor 按失败种类映射 HTTP 状态码
func statusFor(kind source.Kind) int {
	switch kind {
	case source.KindUnsupportedAction, source.KindMalformedRequest,
		source.KindMissingIdentifier, source.KindUnsupportedCapability:
		return http.StatusBadRequest
	case source.KindRateLimited:
		return http.StatusTooManyRequests
	case source.KindNetworkError, source.KindMalformedResponse, source.KindAuthFailure,
		source.KindUpstreamRateLimited, source.KindUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
