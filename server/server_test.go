package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chengxue2020/Cat-ports/config"
	"github.com/chengxue2020/Cat-ports/core/auth"
	"github.com/chengxue2020/Cat-ports/core/host"
	"github.com/chengxue2020/Cat-ports/model"
)

// newUpstream 模拟 GD Studio 接口，id=denied 时返回 403
func newUpstream(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("id") == "denied" {
			io.WriteString(w, `{"code":403}`)
			return
		}
		io.WriteString(w, `{"code":200,"url":"http://x/y.mp3"}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testConfig(upstream string) *config.Config {
	return &config.Config{
		ServerAddr:      ":0",
		Aggregator:      "gdstudio",
		GDStudioAPIURL:  upstream + "/api.php",
		ResolveTimeout:  5 * time.Second,
		RateLimitMax:    2,
		RateLimitWindow: 5 * time.Minute,
		UpdateFormat:    "json",
		CurrentVersion:  "v2.2.4",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Run(ctx))
	t.Cleanup(func() {
		cancel()
		s.Hub().Stop()
	})

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func postRequest(t *testing.T, url, body string, header http.Header) (*http.Response, model.ResolveResult) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result model.ResolveResult
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	}
	return resp, result
}

func musicRequest(platform, quality, id string) string {
	return `{"action":"musicUrl","source":"` + platform + `","info":{"type":"` + quality + `","musicInfo":{"id":"` + id + `"}}}`
}

func TestNew_UnknownAggregator(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Aggregator = "nope"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestHealthAndAggregators(t *testing.T) {
	upstream, _ := newUpstream(t)
	_, ts := newTestServer(t, testConfig(upstream.URL))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(ts.URL + "/api/aggregators")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list []AggregatorInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 3)
	assert.Equal(t, AggregatorInfo{Name: "gdstudio", Label: "星海音乐源", Default: true}, list[0])
	assert.False(t, list[1].Default)
}

func TestSourcesHandler(t *testing.T) {
	upstream, _ := newUpstream(t)
	_, ts := newTestServer(t, testConfig(upstream.URL))

	resp, err := http.Get(ts.URL + "/api/sources")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body SourcesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "gdstudio", body.Aggregator)
	assert.Equal(t, 2, body.RateLimit.Remaining)
	assert.Contains(t, body.Sources["wy"].Qualitys, "flac")

	resp, err = http.Get(ts.URL + "/api/sources?aggregator=lerd")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "lerd", body.Aggregator)
	assert.Empty(t, body.Sources["mg"].Actions)

	resp, err = http.Get(ts.URL + "/api/sources?aggregator=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestHandler(t *testing.T) {
	upstream, hits := newUpstream(t)
	_, ts := newTestServer(t, testConfig(upstream.URL))
	endpoint := ts.URL + "/api/request"

	resp, result := postRequest(t, endpoint, musicRequest("wy", "flac", "12345"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.ResolveResult{Success: true, URL: "http://x/y.mp3"}, result)

	resp, result = postRequest(t, endpoint, `{"action":"musicUrl","source":"wy","info":{"type":"flac","musicInfo":{"name":"x"}}}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "缺少歌曲标识符", result.Error)

	resp, _ = postRequest(t, endpoint, `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, result = postRequest(t, endpoint, musicRequest("wy", "flac", "denied"), nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.False(t, result.Success)
	assert.Equal(t, "权限不足或Key失效", result.Error)

	assert.Equal(t, int64(2), atomic.LoadInt64(hits))

	resp, result = postRequest(t, endpoint, musicRequest("wy", "flac", "12345"), nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "300", resp.Header.Get("Retry-After"))
	assert.Contains(t, result.Error, "请求频率超限")
	assert.Equal(t, int64(2), atomic.LoadInt64(hits))
}

func TestRequestHandler_RequiresTokenWhenSecretSet(t *testing.T) {
	upstream, _ := newUpstream(t)
	cfg := testConfig(upstream.URL)
	cfg.AuthSecret = "s3cret"
	_, ts := newTestServer(t, cfg)
	endpoint := ts.URL + "/api/request"

	resp, _ := postRequest(t, endpoint, musicRequest("wy", "flac", "1"), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postRequest(t, endpoint, musicRequest("wy", "flac", "1"), http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	signer, err := auth.NewSigner("s3cret")
	require.NoError(t, err)
	token, err := signer.GenerateToken("host", time.Hour)
	require.NoError(t, err)

	resp, result := postRequest(t, endpoint, musicRequest("wy", "flac", "1"), http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, result.Success)
}

func TestWebSocket_InitedAndRequest(t *testing.T) {
	upstream, _ := newUpstream(t)
	_, ts := newTestServer(t, testConfig(upstream.URL))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var msg host.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, host.MsgTypeInited, msg.Type)

	var inited model.InitedEvent
	require.NoError(t, json.Unmarshal(msg.Data, &inited))
	assert.True(t, inited.Status)
	assert.Len(t, inited.Sources, 5)

	env := json.RawMessage(musicRequest("tx", "320k", "001"))
	require.NoError(t, conn.WriteJSON(host.Message{Type: host.MsgTypeRequest, ID: "1", Data: env}))

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, host.MsgTypeResponse, msg.Type)
	assert.Equal(t, "1", msg.ID)

	var result model.ResolveResult
	require.NoError(t, json.Unmarshal(msg.Data, &result))
	assert.Equal(t, "http://x/y.mp3", result.URL)
}

func TestWebSocket_TokenQuery(t *testing.T) {
	upstream, _ := newUpstream(t)
	cfg := testConfig(upstream.URL)
	cfg.AuthSecret = "s3cret"
	_, ts := newTestServer(t, cfg)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	signer, _ := auth.NewSigner("s3cret")
	token, err := signer.GenerateToken("host", time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	conn.Close()
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(0))
}

func TestVodPlayHandler(t *testing.T) {
	upstream, _ := newUpstream(t)
	_, ts := newTestServer(t, testConfig(upstream.URL))

	resp, err := http.Get(ts.URL + "/api/vod/play?flag=a&id=http%3A%2F%2Fa%2F1.m3u8")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"parse":0,"url":"http://a/1.m3u8"}`, string(bytes.TrimSpace(body)))

	resp, err = http.Get(ts.URL + "/api/vod/detail")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVodProxyHandler_UnknownKind(t *testing.T) {
	upstream, _ := newUpstream(t)
	_, ts := newTestServer(t, testConfig(upstream.URL))

	resp, err := http.Get(ts.URL + "/api/vod/proxy?url=video%2FaHR0cDovL3g%3D")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
