package pushplus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iWorld-y/news_brief/internal/config"
	"github.com/iWorld-y/news_brief/internal/logger"
	dm "github.com/iWorld-y/news_brief/internal/model"
	"github.com/iWorld-y/news_brief/internal/netutil"
)

// Notifier 把简报推送到 PushPlus
type Notifier struct {
	cfg    config.PushConfig
	client *Client
	now    func() time.Time
}

// NewNotifier 创建推送器
func NewNotifier(cfg config.PushConfig, timeout time.Duration) *Notifier {
	return &Notifier{
		cfg:    cfg,
		client: NewClient(cfg.Endpoint, timeout),
		now:    time.Now,
	}
}

// Title 推送标题，带上当天日期
func (n *Notifier) Title() string {
	prefix := n.cfg.TitlePrefix
	if prefix == "" {
		prefix = "AI早报"
	}
	return fmt.Sprintf("%s | %s", prefix, n.now().Format(time.DateOnly))
}

// Template 选择 PushPlus 渲染模板，纯文本按 markdown 发送
func (n *Notifier) Template(format dm.Format) string {
	if n.cfg.Template != "" {
		return n.cfg.Template
	}
	if format == dm.FormatHTML {
		return "html"
	}
	return "markdown"
}

// BuildMessage 组装推送请求
func (n *Notifier) BuildMessage(report *dm.Report) *Message {
	return &Message{
		Token:    n.cfg.Token,
		Title:    n.Title(),
		Content:  report.Content,
		Template: n.Template(report.Format),
		Topic:    n.cfg.Topic,
	}
}

// Notify 推送简报。token 无效时直接返回错误，不发起任何请求。
func (n *Notifier) Notify(ctx context.Context, report *dm.Report) (*Response, error) {
	if err := ValidateToken(n.cfg.Token); err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errors.New("report is nil")
	}

	msg := n.BuildMessage(report)
	if msg.Topic != "" {
		logger.FromContext(ctx).Infof("📨 正在推送给群组: %s", msg.Topic)
	} else {
		logger.FromContext(ctx).Info("📨 正在推送给自己 (一对一)")
	}

	resp, err := n.client.Send(ctx, msg)
	var transportErr *TransportError
	if errors.As(err, &transportErr) && netutil.IsTransient(err) && ctx.Err() == nil {
		logger.FromContext(ctx).Warnf("推送请求失败，重试一次: %v", err)
		resp, err = n.client.Send(ctx, msg)
	}
	if err != nil {
		return resp, err
	}

	logger.FromContext(ctx).Infof("✅ 推送成功: %s", resp.Msg)
	return resp, nil
}
