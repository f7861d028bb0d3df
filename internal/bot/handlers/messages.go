package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/errs"
	"github.com/smysle/redpacket-go/internal/ledger"
	"github.com/smysle/redpacket-go/internal/models"
	"github.com/smysle/redpacket-go/internal/service"
)

// HistoryPageSize 领取记录每页条数
const HistoryPageSize = 10

const invalidPacketIDText = "❌ 无效的红包 ID"

// validPacketID 命令参数与回调数据中的红包 ID 都要先校验再进入服务层
func validPacketID(id string) bool {
	_, err := models.ParsePacketID(id)
	return err == nil
}

// FormatWelcome 欢迎语
func FormatWelcome(name, viewer string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧧 *%s*\n\n", name))
	sb.WriteString("链上红包：查看、领取、发红包。\n\n")
	sb.WriteString("/packets - 可领取的红包\n")
	sb.WriteString("/log - 全部红包记录\n")
	sb.WriteString("/history <ID> - 领取记录\n")
	sb.WriteString("/refresh - 刷新列表\n")
	if viewer == "" {
		sb.WriteString("\n⚠️ 未配置签名钱包，仅可查看")
	} else {
		sb.WriteString(fmt.Sprintf("\n👛 钱包: `%s`", derive.ShortAddress(viewer)))
	}
	return sb.String()
}

// FormatPacketList 红包列表；claimable 为 true 时是"抢红包"视图
func FormatPacketList(views []derive.PacketView, claimable bool) string {
	if claimable {
		return formatPacketList("🧧 *可领取的红包*", "🎉 暂无可领取的红包", views)
	}
	return formatPacketList("📜 *红包记录*", "暂无红包", views)
}

// FormatCreatorPackets 某地址创建的红包
func FormatCreatorPackets(views []derive.PacketView) string {
	return formatPacketList("👤 *我发的红包*", "还没有发过红包", views)
}

func formatPacketList(title, empty string, views []derive.PacketView) string {
	if len(views) == 0 {
		return title + "\n\n" + empty
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%d)\n\n", title, len(views)))
	for _, v := range views {
		sb.WriteString(fmt.Sprintf("*#%s* · %s\n", v.ID, v.Status))
		sb.WriteString(fmt.Sprintf("💰 %s %s · 剩余 %s %s\n", v.TotalAmount, v.Symbol, v.RemainingAmount, v.Symbol))
		sb.WriteString(fmt.Sprintf("📦 %s/%s 已领取 (%d%%) · 剩余 %s 个\n", v.ClaimedCount, v.TotalCount, v.ProgressPercent, v.RemainingCount))
		sb.WriteString(fmt.Sprintf("👤 `%s`\n\n", v.CreatorShort))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatPacketDetail 红包详情，含按顺序编号的领取者列表
func FormatPacketDetail(v derive.PacketView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧧 *红包 #%s* · %s\n\n", v.ID, v.Status))
	sb.WriteString(fmt.Sprintf("创建者: `%s`\n", v.Creator))
	sb.WriteString(fmt.Sprintf("总金额: %s %s\n", v.TotalAmountDetail, v.Symbol))
	sb.WriteString(fmt.Sprintf("剩余金额: %s %s\n", v.RemainingAmountDetail, v.Symbol))
	sb.WriteString(fmt.Sprintf("进度: %s/%s (%d%%)\n", v.ClaimedCount, v.TotalCount, v.ProgressPercent))

	if len(v.Claimers) > 0 {
		sb.WriteString("\n*领取者*\n")
		for i, c := range v.Claimers {
			sb.WriteString(fmt.Sprintf("%d. `%s`\n", i+1, derive.ShortAddress(c)))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatHistory 领取记录的一页，page 从 1 开始，越界时取最近的有效页
func FormatHistory(id string, claims []derive.ClaimView, symbol string, page int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📜 *红包 #%s 领取记录* (%d)\n\n", id, len(claims)))
	if len(claims) == 0 {
		sb.WriteString("暂无领取记录")
		return sb.String()
	}

	start, end := pageBounds(len(claims), page)
	for _, c := range claims[start:end] {
		sb.WriteString(fmt.Sprintf("• `%s` 领取 %s %s\n", c.ClaimerShort, c.Amount, symbol))
		if c.ExplorerURL != "" {
			sb.WriteString(fmt.Sprintf("  🕐 %s · [交易](%s)\n", c.Time, c.ExplorerURL))
		} else {
			sb.WriteString(fmt.Sprintf("  🕐 %s\n", c.Time))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func pageBounds(items, page int) (start, end int) {
	pages := (items + HistoryPageSize - 1) / HistoryPageSize
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	start = (page - 1) * HistoryPageSize
	end = start + HistoryPageSize
	if end > items {
		end = items
	}
	return start, end
}

// FormatTxSubmitted 交易已提交
func FormatTxSubmitted(h ledger.TxHandle, explorer string) string {
	action := "创建红包"
	if h.Kind == ledger.TxClaim {
		action = "领取红包 #" + h.PacketID
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏳ %s交易已提交，等待确认\n", action))
	sb.WriteString(fmt.Sprintf("哈希: `%s...`", shortHash(h.Hash)))
	if url := derive.TxURL(explorer, h.Hash); url != "" {
		sb.WriteString(fmt.Sprintf("\n[在区块浏览器查看](%s)", url))
	}
	return sb.String()
}

func shortHash(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return hash[:10]
}

// ErrorText 错误提示文案
func ErrorText(err error) string {
	var v *errs.ValidationError
	switch {
	case errors.As(err, &v):
		return "❌ " + v.Message
	case errors.Is(err, service.ErrWalletNotConnected):
		return "❌ 请先连接钱包"
	case errors.Is(err, service.ErrPacketExhausted):
		return "🎊 红包已被抢光"
	case errors.Is(err, service.ErrAlreadyClaimed):
		return "✅ 您已领取过此红包"
	case errors.Is(err, service.ErrPacketNotFound):
		return "❌ 红包不存在"
	case errs.IsSubmission(err):
		return "❌ 交易提交失败，请稍后重试"
	case errs.IsQuery(err):
		return "❌ 加载红包失败，请稍后重试"
	default:
		return "❌ 操作失败，请稍后重试"
	}
}
