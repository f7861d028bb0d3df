// Package bot Telegram Bot 核心
package bot

import (
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/redpacket-go/internal/bot/handlers"
	"github.com/smysle/redpacket-go/internal/bot/middleware"
	"github.com/smysle/redpacket-go/internal/config"
	"github.com/smysle/redpacket-go/pkg/logger"
)

// 普通用户每分钟请求上限
const requestsPerMinute = 30

// Bot Telegram Bot 实例
type Bot struct {
	*tele.Bot
	cfg config.BotConfig
}

// New 创建新的 Bot 实例，处理器通过 Register 注册
func New(cfg config.BotConfig) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error().Err(err).Msg("Bot 错误")
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		Bot: b,
		cfg: cfg,
	}

	// 注册中间件
	bot.Use(middleware.Logger())
	bot.Use(middleware.Recover())
	bot.Use(middleware.RateLimit(requestsPerMinute, cfg.IsAdmin))

	return bot, nil
}

// Register 注册所有处理器
func (b *Bot) Register(h *handlers.Handler) {
	// 用户命令
	b.Handle("/start", h.Start)
	b.Handle("/packets", h.Packets)
	b.Handle("/log", h.Log)
	b.Handle("/history", h.History)
	b.Handle("/refresh", h.Refresh)

	// 管理员命令，使用 Bot 签名钱包
	adminGroup := b.Group()
	adminGroup.Use(middleware.AdminOnly(h.IsAdmin))

	adminGroup.Handle("/claim", h.Claim)
	adminGroup.Handle("/send", h.Send)
	adminGroup.Handle("/mine", h.Mine)

	// 回调查询
	b.Handle(tele.OnCallback, h.OnCallback)

	b.setCommands()
}

// setCommands 设置命令列表
func (b *Bot) setCommands() {
	userCmds := []tele.Command{
		{Text: "start", Description: "开启面板"},
		{Text: "packets", Description: "可领取的红包"},
		{Text: "log", Description: "全部红包记录"},
		{Text: "history", Description: "红包领取记录"},
		{Text: "refresh", Description: "刷新红包列表"},
	}

	adminCmds := append(userCmds, []tele.Command{
		{Text: "claim", Description: "领取红包 [管理]"},
		{Text: "send", Description: "发红包 [管理]"},
		{Text: "mine", Description: "我发的红包 [管理]"},
	}...)

	if err := b.SetCommands(userCmds); err != nil {
		logger.Warn().Err(err).Msg("设置命令列表失败")
	}

	admins := append([]int64{b.cfg.Owner}, b.cfg.Admins...)
	for _, id := range admins {
		if id == 0 {
			continue
		}
		if err := b.SetCommands(adminCmds, tele.CommandScope{
			Type:   tele.CommandScopeChat,
			ChatID: id,
		}); err != nil {
			logger.Warn().Err(err).Int64("chat_id", id).Msg("设置管理员命令失败")
		}
	}
}

// Run 运行 Bot，阻塞直到 Stop
func (b *Bot) Run() {
	logger.Info().Str("bot", b.cfg.Name).Msg("Bot 启动中...")
	b.Start()
}

// Stop 停止 Bot
func (b *Bot) Stop() {
	logger.Info().Msg("Bot 停止中...")
	b.Bot.Stop()
}
