package pushplus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint PushPlus 发送接口
const DefaultEndpoint = "http://www.pushplus.plus/send"

// 推送成功时响应体中的 code
const codeOK = 200

// Client PushPlus API 客户端
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient 创建一个新的 PushPlus 客户端
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Message PushPlus 推送请求
type Message struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"` // markdown or html
	Topic    string `json:"topic,omitempty"`
}

// Response PushPlus 推送响应，成功与否以 Code 为准
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// TransportError 请求在读到响应之前失败
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Send 发送一条消息，只发起一次 POST
func (c *Client) Send(ctx context.Context, msg *Message) (*Response, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	// HTTP 状态码不可靠，以响应体中的 code 为准
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("pushplus api error (status %d): %s", res.StatusCode, string(body))
	}
	if resp.Code != codeOK {
		return &resp, fmt.Errorf("pushplus api error (code %d): %s", resp.Code, resp.Msg)
	}
	return &resp, nil
}
