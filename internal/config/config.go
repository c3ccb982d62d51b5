package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	Feeds                []string          `yaml:"feeds"`
	PerFeedLimit         int               `yaml:"per_feed_limit"`
	SummaryBudget        int               `yaml:"summary_budget"`
	FallbackImages       []string          `yaml:"fallback_images"`
	EnrichEmptySummaries bool              `yaml:"enrich_empty_summaries"`
	LLM                  LLMConfig         `yaml:"llm"`
	Push                 PushConfig        `yaml:"push"`
	Log                  LogConfig         `yaml:"log"`
	Concurrency          ConcurrencyConfig `yaml:"concurrency"`
	HTTP                 HTTPConfig        `yaml:"http"`
}

// LLMConfig 生成模型相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIKey 只从环境变量读取
	APIKey string `yaml:"-"`
	// Catalog 模型目录来源: gemini / openai / static
	Catalog    string   `yaml:"catalog"`
	CatalogURL string   `yaml:"catalog_url"`
	Preference []string `yaml:"preference"`
	Models     []string `yaml:"models"`
	// Format 报告格式: text / markdown / html
	Format        string `yaml:"format"`
	MaxPicks      int    `yaml:"max_picks"`
	PromptFile    string `yaml:"prompt_file"`
	FallbackDelay int    `yaml:"fallback_delay"` // 秒
	Timeout       int    `yaml:"timeout"`        // 秒
}

// PushConfig PushPlus 推送配置
type PushConfig struct {
	Endpoint string `yaml:"endpoint"`
	// Token 只从环境变量读取
	Token       string `yaml:"-"`
	Topic       string `yaml:"topic"`
	TitlePrefix string `yaml:"title_prefix"`
	Template    string `yaml:"template"`
	// OnGenerationFailure 生成失败时的处理: forward / suppress
	OnGenerationFailure string `yaml:"on_generation_failure"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 生成请求的限流配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// HTTPConfig 出站 HTTP 配置
type HTTPConfig struct {
	Timeout   int    `yaml:"timeout"` // 秒
	UserAgent string `yaml:"user_agent"`
}

const (
	FailureForward  = "forward"
	FailureSuppress = "suppress"
)

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		Feeds: []string{
			"https://openai.com/blog/rss.xml",
			"https://huggingface.co/blog/feed.xml",
			"https://techcrunch.com/category/artificial-intelligence/feed/",
			"https://www.theverge.com/rss/artificial-intelligence/index.xml",
		},
		PerFeedLimit:  2,
		SummaryBudget: 200,
		FallbackImages: []string{
			"https://images.unsplash.com/photo-1677442136019-21780ecad995?w=800",
			"https://images.unsplash.com/photo-1620712943543-bcc4688e7485?w=800",
			"https://images.unsplash.com/photo-1485827404703-89b55fcc595e?w=800",
			"https://images.unsplash.com/photo-1555255707-c07966088b7b?w=800",
		},
		LLM: LLMConfig{
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta/openai/",
			Catalog:    "gemini",
			CatalogURL: "https://generativelanguage.googleapis.com/v1beta",
			Preference: []string{
				"gemini-2.5-flash",
				"gemini-2.0-flash",
				"gemini-1.5-flash",
				"gemini-1.5-pro",
				"gemini-pro",
			},
			Models:        []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro"},
			Format:        "text",
			MaxPicks:      5,
			FallbackDelay: 2,
			Timeout:       60,
		},
		Push: PushConfig{
			Endpoint:            "http://www.pushplus.plus/send",
			TitlePrefix:         "AI早报",
			OnGenerationFailure: FailureForward,
		},
		Log: LogConfig{
			Level: "info",
		},
		Concurrency: ConcurrencyConfig{
			QPS: 1,
			RPM: 10,
		},
		HTTP: HTTPConfig{
			Timeout:   30,
			UserAgent: "news_brief/1.0",
		},
	}
}

// LoadConfig 从指定路径加载配置，未给出的字段保留默认值
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// env 环境变量覆盖项；只解析环境变量，不读取命令行参数
type env struct {
	ConfigPath   string   `long:"config" env:"NEWS_BRIEF_CONFIG"`
	GeminiAPIKey string   `long:"gemini-api-key" env:"GEMINI_API_KEY"`
	LLMAPIKey    string   `long:"llm-api-key" env:"LLM_API_KEY"`
	LLMBaseURL   string   `long:"llm-base-url" env:"LLM_BASE_URL"`
	LLMModels    []string `long:"llm-models" env:"LLM_MODELS" env-delim:","`
	LLMFormat    string   `long:"llm-format" env:"LLM_FORMAT"`
	PushToken    string   `long:"pushplus-token" env:"PUSHPLUS_TOKEN"`
	PushTopic    string   `long:"pushplus-topic" env:"PUSHPLUS_TOPIC"`
	Feeds        []string `long:"feeds" env:"RSS_FEEDS" env-delim:","`
	PerFeedLimit int      `long:"per-feed-limit" env:"PER_FEED_LIMIT"`
	LogLevel     string   `long:"log-level" env:"LOG_LEVEL"`
	LogFile      string   `long:"log-file" env:"LOG_FILE"`
}

// Load 组装最终配置: 默认值 -> YAML 文件 (NEWS_BRIEF_CONFIG) -> 环境变量
func Load() (*Config, error) {
	// 本地运行时读取 .env，文件不存在不算错误
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var e env
	if _, err := flags.NewParser(&e, flags.None).ParseArgs([]string{}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg := Default()
	if e.ConfigPath != "" {
		fileCfg, err := LoadConfig(e.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		cfg = fileCfg
	}

	e.apply(cfg)
	return cfg, nil
}

func (e *env) apply(cfg *Config) {
	// LLM_API_KEY 优先，兼容原有的 GEMINI_API_KEY
	if e.LLMAPIKey != "" {
		cfg.LLM.APIKey = e.LLMAPIKey
	} else if e.GeminiAPIKey != "" {
		cfg.LLM.APIKey = e.GeminiAPIKey
	}
	if e.LLMBaseURL != "" {
		cfg.LLM.BaseURL = e.LLMBaseURL
	}
	if models := nonEmpty(e.LLMModels); len(models) > 0 {
		cfg.LLM.Models = models
	}
	if e.LLMFormat != "" {
		cfg.LLM.Format = e.LLMFormat
	}
	if e.PushToken != "" {
		cfg.Push.Token = e.PushToken
	}
	if e.PushTopic != "" {
		cfg.Push.Topic = e.PushTopic
	}
	if feeds := nonEmpty(e.Feeds); len(feeds) > 0 {
		cfg.Feeds = feeds
	}
	if e.PerFeedLimit > 0 {
		cfg.PerFeedLimit = e.PerFeedLimit
	}
	if e.LogLevel != "" {
		cfg.Log.Level = e.LogLevel
	}
	if e.LogFile != "" {
		cfg.Log.File = e.LogFile
	}
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate 在任何网络请求之前检查配置
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("未检测到 GEMINI_API_KEY / LLM_API_KEY")
	}
	if len(c.Feeds) == 0 {
		return errors.New("未设置 RSS 源 (feeds)")
	}
	if c.PerFeedLimit < 1 {
		return fmt.Errorf("per_feed_limit 必须大于 0, 当前为 %d", c.PerFeedLimit)
	}
	if c.SummaryBudget < 1 {
		return fmt.Errorf("summary_budget 必须大于 0, 当前为 %d", c.SummaryBudget)
	}
	if c.LLM.Catalog == "static" && len(c.LLM.Models) == 0 {
		return errors.New("catalog 为 static 时必须设置 llm.models")
	}
	switch c.LLM.Format {
	case "text", "markdown", "html":
	default:
		return fmt.Errorf("未知的报告格式: %s", c.LLM.Format)
	}
	switch c.Push.OnGenerationFailure {
	case FailureForward, FailureSuppress:
	default:
		return fmt.Errorf("未知的 on_generation_failure: %s", c.Push.OnGenerationFailure)
	}
	return nil
}

// Timeout 把秒数转换为 time.Duration，非正数时使用 fallback
func Timeout(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
