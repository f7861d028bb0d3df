// Package keyboards 键盘按钮
package keyboards

import (
	tele "gopkg.in/telebot.v3"

	"github.com/smysle/redpacket-go/internal/derive"
)

// PacketButton 列表中单个红包的按钮数据
type PacketButton struct {
	ID     string
	Button derive.ButtonState
}

// StartKeyboard 开始面板键盘
func StartKeyboard(isAdmin bool) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	rows := []tele.Row{
		markup.Row(
			markup.Data("🧧 抢红包", "packets"),
			markup.Data("📜 红包记录", "log"),
		),
		markup.Row(
			markup.Data("🔄 刷新", "refresh"),
		),
	}

	if isAdmin {
		rows = append(rows, markup.Row(
			markup.Data("👤 我发的红包", "mine"),
		))
	}

	markup.Inline(rows...)
	return markup
}

// PacketListKeyboard 可领取列表：每个红包一行，领取按钮 + 详情按钮
func PacketListKeyboard(items []PacketButton) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	rows := make([]tele.Row, 0, len(items)+1)
	for _, item := range items {
		claim := markup.Data(item.Button.Label()+" #"+item.ID, "noop")
		if item.Button.Enabled() {
			claim = markup.Data(item.Button.Label()+" #"+item.ID, "claim|"+item.ID)
		}
		rows = append(rows, markup.Row(
			claim,
			markup.Data("📜 详情", "toggle|"+item.ID),
		))
	}
	rows = append(rows, markup.Row(
		markup.Data("🔄 刷新", "refresh"),
		markup.Data("❌ 关闭", "close"),
	))

	markup.Inline(rows...)
	return markup
}

// PacketDetailKeyboard 红包详情键盘
func PacketDetailKeyboard(id string, button derive.ButtonState) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var rows []tele.Row
	if button.Enabled() {
		rows = append(rows, markup.Row(markup.Data(button.Label(), "claim|"+id)))
	}
	rows = append(rows,
		markup.Row(
			markup.Data("📜 全部领取记录", "history|"+id+"|1"),
			markup.Data("🖼 卡片", "card|"+id),
		),
		markup.Row(
			markup.Data("« 收起", "toggle|"+id),
			markup.Data("❌ 关闭", "close"),
		),
	)

	markup.Inline(rows...)
	return markup
}

// CloseKeyboard 只有关闭按钮
func CloseKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("❌ 关闭", "close")))
	return markup
}
