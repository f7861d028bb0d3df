package notify

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/redpacket-go/pkg/logger"
)

// Sender *tele.Bot 的发送能力
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram 推送到群组
type Telegram struct {
	sender Sender
	chat   tele.Recipient
	levels map[Level]bool
}

// NewTelegram 创建 Telegram 通知出口，levels 为空时推送所有级别
func NewTelegram(sender Sender, chatID int64, levels ...Level) *Telegram {
	t := &Telegram{
		sender: sender,
		chat:   &tele.Chat{ID: chatID},
	}
	if len(levels) > 0 {
		t.levels = make(map[Level]bool, len(levels))
		for _, l := range levels {
			t.levels[l] = true
		}
	}
	return t
}

var levelIcons = map[Level]string{
	LevelSuccess: "✅",
	LevelInfo:    "ℹ️",
	LevelWarning: "⚠️",
	LevelError:   "❌",
}

// Notify 实现 Notifier
func (t *Telegram) Notify(_ context.Context, n Notification) {
	if t.levels != nil && !t.levels[n.Level] {
		return
	}
	text := levelIcons[n.Level] + " " + n.Message
	if _, err := t.sender.Send(t.chat, text); err != nil {
		logger.Warn().Err(err).Str("id", n.ID).Msg("推送 Telegram 通知失败")
	}
}
