// Package keyboards 分页组件
package keyboards

import (
	"fmt"

	tele "gopkg.in/telebot.v3"
)

// Paginator 分页器配置
type Paginator struct {
	Total       int    // 总页数
	Current     int    // 当前页码
	CallbackFmt string // 回调格式，如 "history|12|%d"
	MaxButtons  int    // 最大页码按钮数（不含导航按钮）
}

// NewPaginator 创建分页器
func NewPaginator(total, current int, callbackFmt string) *Paginator {
	return &Paginator{
		Total:       total,
		Current:     current,
		CallbackFmt: callbackFmt,
		MaxButtons:  5,
	}
}

// TotalPages 计算总页数
func TotalPages(items, pageSize int) int {
	if items <= 0 || pageSize <= 0 {
		return 1
	}
	return (items + pageSize - 1) / pageSize
}

// BuildKeyboardWithExtra 构建带额外按钮的分页键盘
func (p *Paginator) BuildKeyboardWithExtra(extraRows ...tele.Row) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var allRows []tele.Row

	if p.Total > 1 {
		var navRow []tele.Btn
		var pageRow []tele.Btn

		// 上一页
		if p.Current > 1 {
			navRow = append(navRow, markup.Data("◀️", fmt.Sprintf(p.CallbackFmt, p.Current-1)))
		}

		// 页码
		start, end := p.calculatePageRange()
		for i := start; i <= end; i++ {
			if i == p.Current {
				pageRow = append(pageRow, markup.Data(fmt.Sprintf("·%d·", i), "noop"))
			} else {
				pageRow = append(pageRow, markup.Data(fmt.Sprintf("%d", i), fmt.Sprintf(p.CallbackFmt, i)))
			}
		}

		// 下一页
		if p.Current < p.Total {
			navRow = append(navRow, markup.Data("▶️", fmt.Sprintf(p.CallbackFmt, p.Current+1)))
		}

		if len(pageRow) > 0 {
			allRows = append(allRows, markup.Row(pageRow...))
		}
		if len(navRow) > 0 {
			allRows = append(allRows, markup.Row(navRow...))
		}
	}

	// 添加额外行
	allRows = append(allRows, extraRows...)

	markup.Inline(allRows...)
	return markup
}

// calculatePageRange 计算页码范围
func (p *Paginator) calculatePageRange() (start, end int) {
	maxButtons := p.MaxButtons
	if maxButtons <= 0 {
		maxButtons = 5
	}

	half := maxButtons / 2

	start = p.Current - half
	end = p.Current + half

	// 边界调整
	if start < 1 {
		end += (1 - start)
		start = 1
	}

	if end > p.Total {
		start -= (end - p.Total)
		end = p.Total
	}

	if start < 1 {
		start = 1
	}

	return
}

// HistoryPagination 领取记录分页键盘
func HistoryPagination(packetID string, page, total int) *tele.ReplyMarkup {
	p := NewPaginator(total, page, "history|"+packetID+"|%d")
	markup := &tele.ReplyMarkup{}
	return p.BuildKeyboardWithExtra(
		markup.Row(
			markup.Data("« 返回列表", "packets"),
			markup.Data("❌ 关闭", "close"),
		),
	)
}
