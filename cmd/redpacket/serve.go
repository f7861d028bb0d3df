package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smysle/redpacket-go/internal/bot"
	"github.com/smysle/redpacket-go/internal/bot/handlers"
	"github.com/smysle/redpacket-go/internal/notify"
	"github.com/smysle/redpacket-go/internal/web"
	"github.com/smysle/redpacket-go/pkg/logger"
)

// serveCmd 常驻服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 Telegram Bot 与 Web API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info().Msg("🧧 RedPacket 启动中...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telegram Bot 先创建，群组通知需要它发送消息
	var tgBot *bot.Bot
	var notifier notify.Notifier
	if cfg.Bot.Enabled {
		b, err := bot.New(cfg.Bot)
		if err != nil {
			return err
		}
		tgBot = b
		if cfg.Bot.Group != 0 {
			notifier = notify.NewTelegram(b, cfg.Bot.Group, notify.LevelSuccess, notify.LevelError)
		}
		logger.Info().Str("bot", cfg.Bot.Name).Msg("✅ Telegram Bot 初始化完成")
	}

	a, err := newApp(ctx, cfg, notifier, true)
	if err != nil {
		return err
	}
	logger.Info().Bool("read_only", cfg.ReadOnly()).Msg("✅ 红包服务初始化完成")

	view := viewOptions(cfg)

	// 首次加载，失败时已推送通知，请求到来时会再次尝试
	go func() {
		if err := a.svc.LoadPackets(ctx); err != nil {
			logger.Warn().Err(err).Msg("首次加载红包失败")
		}
	}()

	webServer := web.New(cfg.API, a.svc, view)
	go func() {
		if err := webServer.Start(); err != nil {
			logger.Error().Err(err).Msg("Web API 服务启动失败")
		}
	}()

	if tgBot != nil {
		tgBot.Register(handlers.New(a.svc, cfg.Bot, view))
		go tgBot.Run()
	}

	// 监听系统信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info().Msg("🚀 RedPacket 启动成功!")
	logger.Info().Msg("按 Ctrl+C 停止...")

	<-quit

	logger.Info().Msg("正在关闭服务...")
	if tgBot != nil {
		tgBot.Stop()
	}
	if err := webServer.Stop(); err != nil {
		logger.Warn().Err(err).Msg("关闭 Web API 服务失败")
	}
	cancel()
	a.Close()
	logger.Info().Msg("👋 再见!")
	return nil
}
