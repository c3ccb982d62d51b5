package main

import (
	"context"
	"log"

	"github.com/iWorld-y/news_brief/internal/config"
	"github.com/iWorld-y/news_brief/internal/engine"
	"github.com/iWorld-y/news_brief/internal/logger"
	"github.com/iWorld-y/news_brief/internal/pushplus"
)

func main() {
	// 1. 加载配置: 默认值 -> 配置文件 -> 环境变量
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动 AI 早报...")

	// 3. 验证配置，任何网络请求之前完成
	if err = cfg.Validate(); err != nil {
		logger.Log.Fatalf("配置错误: %v", err)
	}
	if err = pushplus.ValidateToken(cfg.Push.Token); err != nil {
		logger.Log.Fatalf("配置错误: %v", err)
	}

	// 4. 初始化引擎
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}

	// 5. 执行，推送失败不影响退出码
	if err = eng.Run(context.Background()); err != nil {
		logger.Log.Fatalf("运行失败: %v", err)
	}
	logger.Log.Info("✅ 本次运行结束")
}
