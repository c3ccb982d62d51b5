package generator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/news_brief/internal/catalog"
	"github.com/iWorld-y/news_brief/internal/config"
	"github.com/iWorld-y/news_brief/internal/logger"
	dm "github.com/iWorld-y/news_brief/internal/model"
	"github.com/iWorld-y/news_brief/internal/netutil"
)

// ModelFactory 按模型名称创建对话模型
type ModelFactory func(ctx context.Context, name string) (model.BaseChatModel, error)

// Generator 简报生成器
type Generator struct {
	cfg      config.LLMConfig
	lister   catalog.Lister
	newModel ModelFactory
	limiter  *rate.Limiter
	tmpl     *template.Template
	timeout  time.Duration
	delay    time.Duration
	now      func() time.Time
}

// Option 可选配置
type Option func(*Generator)

// WithModelFactory 替换模型创建函数
func WithModelFactory(f ModelFactory) Option {
	return func(g *Generator) { g.newModel = f }
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithFallbackDelay 替换切换候选模型前的等待时间
func WithFallbackDelay(d time.Duration) Option {
	return func(g *Generator) { g.delay = d }
}

// New 创建生成器，lister 为 nil 时只使用固定备选列表
func New(cfg *config.Config, lister catalog.Lister, opts ...Option) (*Generator, error) {
	tmpl, err := loadTemplate(cfg.LLM)
	if err != nil {
		return nil, err
	}

	timeout := config.Timeout(cfg.LLM.Timeout, 60*time.Second)

	// Limit 设置为 RPM/60，Burst 设置为 QPS
	limit := rate.Inf
	if cfg.Concurrency.RPM > 0 {
		limit = rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	}
	burst := max(cfg.Concurrency.QPS, 1)

	g := &Generator{
		cfg:      cfg.LLM,
		lister:   lister,
		newModel: OpenAIModelFactory(cfg.LLM, timeout),
		limiter:  rate.NewLimiter(limit, burst),
		tmpl:     tmpl,
		timeout:  timeout,
		delay:    time.Duration(max(cfg.LLM.FallbackDelay, 0)) * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	logger.Log.Debugf("限流器已配置: Limit=%.2f req/s, Burst=%d", limit, burst)
	return g, nil
}

func loadTemplate(cfg config.LLMConfig) (*template.Template, error) {
	if cfg.PromptFile == "" {
		return defaultTemplate(dm.Format(cfg.Format))
	}
	data, err := os.ReadFile(cfg.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	tmpl, err := template.New("custom").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse prompt file: %w", err)
	}
	return tmpl, nil
}

// OpenAIModelFactory 使用 OpenAI 兼容接口创建对话模型
func OpenAIModelFactory(cfg config.LLMConfig, timeout time.Duration) ModelFactory {
	return func(ctx context.Context, name string) (model.BaseChatModel, error) {
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   name,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		return cm, nil
	}
}

// BuildPrompt 把新闻条目和当天日期填入提示词模板
func (g *Generator) BuildPrompt(items []dm.NewsItem) (string, error) {
	data := promptData{
		Date:     g.now().Format(time.DateOnly),
		Content:  FormatItems(items),
		MaxPicks: g.cfg.MaxPicks,
		Count:    len(items),
	}
	if data.MaxPicks <= 0 {
		data.MaxPicks = 5
	}

	var sb strings.Builder
	if err := g.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}

// Candidates 返回按顺序尝试的模型名称
func (g *Generator) Candidates(ctx context.Context) []string {
	var ranked []string
	if g.lister != nil {
		models, err := g.lister.ListModels(ctx)
		if err != nil && netutil.IsTransient(err) {
			models, err = g.lister.ListModels(ctx)
		}
		if err != nil {
			logger.FromContext(ctx).Warnf("获取模型列表失败，使用固定备选列表: %v", err)
		} else {
			ranked = catalog.Rank(models, g.cfg.Preference)
			logger.FromContext(ctx).Debugf("模型目录返回 %d 个模型，匹配偏好 %d 个", len(models), len(ranked))
		}
	}
	return catalog.Candidates(ranked, g.cfg.Models)
}

// Generate 依次尝试候选模型，直到某个模型成功生成简报。
// 全部失败时返回 *Error，由调用方决定是否推送失败信息。
func (g *Generator) Generate(ctx context.Context, items []dm.NewsItem) (*dm.Report, error) {
	logger.FromContext(ctx).Info("🤖 正在生成简报...")

	prompt, err := g.BuildPrompt(items)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: prompt},
	}

	candidates := g.Candidates(ctx)
	logger.FromContext(ctx).Infof("候选模型: %s", strings.Join(candidates, ", "))

	genErr := &Error{}
	for i, name := range candidates {
		if i > 0 && g.delay > 0 {
			select {
			case <-ctx.Done():
				genErr.Attempts = append(genErr.Attempts, Attempt{Model: name, Err: ctx.Err()})
				return nil, genErr
			case <-time.After(g.delay):
			}
		}

		content, err := g.attempt(ctx, name, messages)
		if err == nil {
			logger.FromContext(ctx).Infof("✅ 简报生成成功, 模型: %s", name)
			return &dm.Report{
				Content:     content,
				Format:      dm.Format(g.cfg.Format),
				Model:       name,
				GeneratedAt: g.now(),
			}, nil
		}

		genErr.Attempts = append(genErr.Attempts, Attempt{Model: name, Err: err})
		if netutil.IsRateLimited(err) {
			logger.FromContext(ctx).Warnf("模型 [%s] 触发限流或配额耗尽 (%d/%d)，切换下一个模型", name, i+1, len(candidates))
		} else {
			logger.FromContext(ctx).Warnf("模型 [%s] 生成失败 (%d/%d): %v", name, i+1, len(candidates), err)
		}

		if netutil.IsCredential(err) {
			logger.FromContext(ctx).Error("凭证无效，停止尝试其他模型")
			break
		}
	}

	return nil, genErr
}

// attempt 使用单个模型生成，临时传输错误重试一次
func (g *Generator) attempt(ctx context.Context, name string, messages []*schema.Message) (string, error) {
	cm, err := g.newModel(ctx, name)
	if err != nil {
		return "", fmt.Errorf("LLM 初始化失败: %w", err)
	}

	content, err := g.call(ctx, cm, messages)
	if err != nil && netutil.IsTransient(err) && ctx.Err() == nil {
		logger.FromContext(ctx).Warnf("模型 [%s] 出现临时错误，重试一次: %v", name, err)
		content, err = g.call(ctx, cm, messages)
	}
	return content, err
}

func (g *Generator) call(ctx context.Context, cm model.BaseChatModel, messages []*schema.Message) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("limiter wait error: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := cm.Generate(callCtx, messages)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errEmptyResponse
	}

	content := StripCodeFences(resp.Content)
	if content == "" {
		return "", errEmptyResponse
	}
	return content, nil
}
