package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iWorld-y/news_brief/internal/catalog"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client Gemini 模型目录客户端
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient 创建一个新的 Gemini 目录客户端
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
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

// ListResponse models.list 响应
type ListResponse struct {
	Models        []ModelInfo `json:"models"`
	NextPageToken string      `json:"nextPageToken"`
}

// ModelInfo 单个模型信息
type ModelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// ListModels 拉取全部模型，自动翻页
func (c *Client) ListModels(ctx context.Context) ([]catalog.Model, error) {
	var models []catalog.Model
	pageToken := ""
	for {
		resp, err := c.listPage(ctx, pageToken)
		if err != nil {
			return nil, err
		}
		for _, m := range resp.Models {
			models = append(models, catalog.Model{
				Name:    strings.TrimPrefix(m.Name, "models/"),
				Methods: m.SupportedGenerationMethods,
			})
		}
		if resp.NextPageToken == "" {
			return models, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (c *Client) listPage(ctx context.Context, pageToken string) (*ListResponse, error) {
	u, err := url.Parse(c.baseURL + "/models")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("pageSize", "1000")
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

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
		return nil, fmt.Errorf("gemini api error (status code: %d): %s", res.StatusCode, string(body))
	}

	var listResp ListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	return &listResp, nil
}
