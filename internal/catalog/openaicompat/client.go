package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iWorld-y/news_brief/internal/catalog"
)

// Client OpenAI 兼容 /models 接口客户端
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient 创建一个新的 OpenAI 兼容目录客户端
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Ensure Client implements catalog.Lister
var _ catalog.Lister = (*Client)(nil)

// ListResponse /models 响应
type ListResponse struct {
	Data []struct {
		ID      string `json:"id"`
		OwnedBy string `json:"owned_by"`
	} `json:"data"`
}

// ListModels 拉取模型列表。该接口不返回能力信息，按名称排除非对话模型。
func (c *Client) ListModels(ctx context.Context) ([]catalog.Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("models api error (status code: %d): %s", res.StatusCode, string(body))
	}

	var listResp ListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}

	var models []catalog.Model
	for _, m := range listResp.Data {
		// Gemini 的兼容接口返回 models/ 前缀
		name := strings.TrimPrefix(m.ID, "models/")
		if name == "" || catalog.IsNonChat(name) {
			continue
		}
		models = append(models, catalog.Model{Name: name})
	}
	return models, nil
}
