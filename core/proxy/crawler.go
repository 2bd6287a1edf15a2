// Package proxy 转发影视配置文件，处理常见的混淆格式并下载爬虫 jar
package proxy

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"golang.org/x/net/idna"

	"github.com/chengxue2020/Cat-ports/logger"
)

const (
	DefaultUserAgent = "okhttp"
	maxConfigSize    = 8 << 20
)

var (
	ErrMissingURL = errors.New("missing url parameter")
	ErrInvalidURL = errors.New("invalid url")
)

var (
	bodyMarker   = []byte("**")
	spiderMarker = []byte(`spider":"`)
	md5Marker    = []byte(";md5;")
)

// Crawler 配置文件转发处理器
type Crawler struct {
	client    *http.Client
	userAgent string
}

// NewCrawler 创建转发处理器，userAgent 为空时使用 okhttp
func NewCrawler(userAgent string, timeout time.Duration) *Crawler {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Crawler{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// EncodeURL 把国际化域名转换为 Punycode
func EncodeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if host, err = idna.Lookup.ToASCII(host); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
	}
	if port := u.Port(); port != "" {
		host = host + ":" + port
	}
	u.Host = host
	return u.String(), nil
}

// Unwrap 去掉 ** 之前的前缀，如果剩余部分是 base64 则解码
// 第二个返回值是去掉前缀后、解码前的内容
func Unwrap(body []byte) (decoded, stripped []byte) {
	if i := bytes.Index(body, bodyMarker); i >= 0 {
		body = body[i+len(bodyMarker):]
	}
	if out, ok := decodeBase64(body); ok {
		return out, body
	}
	return body, body
}

func decodeBase64(b []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, false
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding.Strict(), base64.RawStdEncoding.Strict()} {
		out, err := enc.DecodeString(string(trimmed))
		if err == nil && len(out) > 0 {
			return out, true
		}
	}
	return nil, false
}

// SpiderURL 从配置中取出爬虫 jar 地址，不含 ;md5; 时返回空
func SpiderURL(body []byte) string {
	end := bytes.Index(body, md5Marker)
	if end < 0 {
		return ""
	}
	start := 0
	if i := bytes.Index(body, spiderMarker); i >= 0 && i+len(spiderMarker) <= end {
		start = i + len(spiderMarker)
	}
	return string(body[start:end])
}

// ServeHTTP GET /proxy?url=<target>
func (c *Crawler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, ErrMissingURL.Error(), http.StatusBadRequest)
		return
	}
	encoded, err := EncodeURL(target)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := c.fetch(r, encoded)
	if err != nil {
		logger.Warn("[Proxy] 获取配置失败", logger.String("url", encoded), logger.ErrorField(err))
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}

	decoded, stripped := Unwrap(body)

	if jar := SpiderURL(stripped); jar != "" {
		c.serveJar(w, r, jar)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(decoded)
}

func (c *Crawler) serveJar(w http.ResponseWriter, r *http.Request, jarURL string) {
	content, err := c.fetch(r, jarURL)
	if err != nil {
		logger.Warn("[Proxy] 下载 jar 失败", logger.String("url", jarURL), logger.ErrorField(err))
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}

	filename := path.Base(jarURL)
	if u, err := url.Parse(jarURL); err == nil && u.Path != "" {
		filename = path.Base(u.Path)
	}

	logger.Info("[Proxy] 下载 jar", logger.String("url", jarURL), logger.Int("size", len(content)))

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Transfer-Encoding", "binary")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Write(content)
}

func (c *Crawler) fetch(r *http.Request, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxConfigSize))
}
