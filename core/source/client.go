package source

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// 响应体上限，正常的地址响应只有几百字节
const maxBodySize = 1 << 20

// Client 聚合接口的 HTTP 客户端
type Client struct {
	httpClient *http.Client
}

// NewClient 创建客户端，timeout 为 0 时沿用 http.Client 默认行为
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWith 使用外部提供的 http.Client
func NewClientWith(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{httpClient: hc}
}

// SetTimeout 设置请求超时时间
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// Do 发送请求并读取完整响应体，不做重试
func (c *Client) Do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return resp.StatusCode, body, nil
}
