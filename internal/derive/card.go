package derive

import "github.com/smysle/redpacket-go/pkg/imggen"

// Card 卡片图片参数
func (v PacketView) Card() imggen.CardData {
	return imggen.CardData{
		ID:          v.ID,
		Creator:     v.CreatorShort,
		TotalAmount: v.TotalAmount,
		Remaining:   v.RemainingAmount,
		Symbol:      v.Symbol,
		Claimed:     v.ClaimedCount,
		Total:       v.TotalCount,
		Progress:    v.ProgressPercent,
		Exhausted:   v.Exhausted,
	}
}
