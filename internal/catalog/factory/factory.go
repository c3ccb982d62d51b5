package factory

import (
	"fmt"
	"time"

	"github.com/iWorld-y/news_brief/internal/catalog"
	"github.com/iWorld-y/news_brief/internal/catalog/gemini"
	"github.com/iWorld-y/news_brief/internal/catalog/openaicompat"
	"github.com/iWorld-y/news_brief/internal/config"
)

// NewLister 根据配置创建模型目录；static 返回 nil，表示只使用固定备选列表
func NewLister(cfg config.LLMConfig, timeout time.Duration) (catalog.Lister, error) {
	switch cfg.Catalog {
	case "", "static":
		return nil, nil

	case "gemini":
		return gemini.NewClient(cfg.CatalogURL, cfg.APIKey, timeout), nil

	case "openai":
		baseURL := cfg.CatalogURL
		if baseURL == "" {
			baseURL = cfg.BaseURL
		}
		if baseURL == "" {
			return nil, fmt.Errorf("openai catalog base url is missing")
		}
		return openaicompat.NewClient(baseURL, cfg.APIKey, timeout), nil

	default:
		return nil, fmt.Errorf("unknown model catalog: %s", cfg.Catalog)
	}
}
