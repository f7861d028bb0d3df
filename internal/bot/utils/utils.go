// Package utils Bot 工具函数
package utils

import (
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/redpacket-go/pkg/logger"
)

// DeleteAfter 定时删除消息
func DeleteAfter(b *tele.Bot, msg *tele.Message, seconds int) {
	if msg == nil || b == nil {
		return
	}
	go func() {
		time.Sleep(time.Duration(seconds) * time.Second)
		if err := b.Delete(msg); err != nil {
			logger.Debug().Err(err).Msg("删除消息失败")
		}
	}()
}

// SendAndDelete 发送消息并定时删除，用于临时提示
func SendAndDelete(c tele.Context, text string, seconds int, opts ...interface{}) error {
	msg, err := c.Bot().Send(c.Chat(), text, opts...)
	if err != nil {
		return err
	}
	DeleteAfter(c.Bot(), msg, seconds)
	return nil
}

// EditOrReply 编辑回调所在的消息，失败时发送新消息
func EditOrReply(c tele.Context, text string, opts ...interface{}) error {
	if c.Callback() == nil || c.Message() == nil {
		return c.Send(text, opts...)
	}
	if err := c.Edit(text, opts...); err != nil {
		logger.Debug().Err(err).Msg("编辑消息失败，发送新消息")
		return c.Send(text, opts...)
	}
	return nil
}

// Respond 回调提示，非回调时忽略
func Respond(c tele.Context, text string, alert bool) {
	if c.Callback() == nil {
		return
	}
	if err := c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: alert}); err != nil {
		logger.Debug().Err(err).Msg("回调响应失败")
	}
}
