package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/news_brief/internal/catalog/factory"
	"github.com/iWorld-y/news_brief/internal/collector"
	"github.com/iWorld-y/news_brief/internal/config"
	"github.com/iWorld-y/news_brief/internal/generator"
	"github.com/iWorld-y/news_brief/internal/logger"
	dm "github.com/iWorld-y/news_brief/internal/model"
	"github.com/iWorld-y/news_brief/internal/pushplus"
)

// Collector 抓取新闻条目
type Collector interface {
	Collect(ctx context.Context, feeds []string, perFeedLimit int) []dm.NewsItem
}

// Generator 生成简报
type Generator interface {
	Generate(ctx context.Context, items []dm.NewsItem) (*dm.Report, error)
}

// Notifier 推送简报
type Notifier interface {
	Notify(ctx context.Context, report *dm.Report) (*pushplus.Response, error)
}

// Engine 核心处理引擎
type Engine struct {
	cfg       *config.Config
	collector Collector
	generator Generator
	notifier  Notifier
	now       func() time.Time
}

// NewEngine 创建引擎实例
func NewEngine(cfg *config.Config) (*Engine, error) {
	timeout := config.Timeout(cfg.HTTP.Timeout, 30*time.Second)

	// 初始化模型目录
	lister, err := factory.NewLister(cfg.LLM, timeout)
	if err != nil {
		return nil, fmt.Errorf("模型目录初始化失败: %w", err)
	}

	gen, err := generator.New(cfg, lister)
	if err != nil {
		return nil, fmt.Errorf("生成器初始化失败: %w", err)
	}

	return newEngine(cfg, collector.New(cfg), gen, pushplus.NewNotifier(cfg.Push, timeout)), nil
}

func newEngine(cfg *config.Config, c Collector, g Generator, n Notifier) *Engine {
	return &Engine{
		cfg:       cfg,
		collector: c,
		generator: g,
		notifier:  n,
		now:       time.Now,
	}
}

// Run 执行一次抓取、生成、推送。
// 只有推送 token 无效时返回错误，抓取和推送失败只记录日志。
func (e *Engine) Run(ctx context.Context) error {
	log := logger.Log.WithField("run_id", uuid.NewString())
	ctx = logger.WithEntry(ctx, log)

	if err := pushplus.ValidateToken(e.cfg.Push.Token); err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	log.Infof("🚀 开始抓取 %d 个订阅源，每个最多 %d 条", len(e.cfg.Feeds), e.cfg.PerFeedLimit)
	items := e.collector.Collect(ctx, e.cfg.Feeds, e.cfg.PerFeedLimit)
	if len(items) == 0 {
		log.Warn("⚠️ 未抓取到足够数据，跳过生成和推送")
		return nil
	}

	report, err := e.generator.Generate(ctx, items)
	if err != nil {
		report = e.onGenerationFailure(log, err)
		if report == nil {
			return nil
		}
	} else {
		rule := strings.Repeat("=", 30)
		log.WithField("model", report.Model).Info("简报内容如下:")
		log.Info(rule)
		log.Info(report.Content)
		log.Info(rule)
	}

	if _, err := e.notifier.Notify(ctx, report); err != nil {
		log.Errorf("❌ 推送失败: %v", err)
	}
	return nil
}

// onGenerationFailure 按配置决定是否推送失败信息，返回 nil 表示不推送
func (e *Engine) onGenerationFailure(log *logrus.Entry, err error) *dm.Report {
	reason := err.Error()
	var genErr *generator.Error
	if errors.As(err, &genErr) {
		reason = genErr.Reason()
	}
	log.Errorf("❌ 简报生成失败: %v", err)

	if e.cfg.Push.OnGenerationFailure == config.FailureSuppress {
		log.Warn("生成失败，按配置不推送")
		return nil
	}
	return &dm.Report{
		Content:     "❌ 简报生成失败: " + reason,
		Format:      dm.Format(e.cfg.LLM.Format),
		GeneratedAt: e.now(),
	}
}
