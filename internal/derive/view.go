package derive

import (
	"strings"
	"time"

	"github.com/smysle/redpacket-go/internal/models"
)

// ButtonState 领取按钮状态
type ButtonState string

const (
	ButtonExhausted    ButtonState = "exhausted"    // 已抢光
	ButtonClaimed      ButtonState = "claimed"      // 已领取
	ButtonDisconnected ButtonState = "disconnected" // 未连接钱包
	ButtonClaimable    ButtonState = "claimable"    // 可领取
)

// Label 按钮文案
func (b ButtonState) Label() string {
	switch b {
	case ButtonExhausted:
		return "🎊 已抢光"
	case ButtonClaimed:
		return "✅ 已领取"
	case ButtonDisconnected:
		return "请先连接钱包"
	default:
		return "🎁 点击领取"
	}
}

// Enabled 按钮是否可点击
func (b ButtonState) Enabled() bool {
	return b == ButtonClaimable
}

// ButtonFor 根据资格计算按钮状态，已抢光优先于已领取
func ButtonFor(el models.Eligibility) ButtonState {
	switch {
	case el.Exhausted:
		return ButtonExhausted
	case el.HasClaimed:
		return ButtonClaimed
	case el.Viewer == "":
		return ButtonDisconnected
	default:
		return ButtonClaimable
	}
}

// ViewOptions 展示参数
type ViewOptions struct {
	Decimals    int32
	Symbol      string
	ExplorerURL string
	Location    *time.Location
}

// PacketView 红包展示数据
type PacketView struct {
	ID                    string   `json:"id"`
	Creator               string   `json:"creator"`
	CreatorShort          string   `json:"creator_short"`
	TotalAmount           string   `json:"total_amount"`
	TotalAmountDetail     string   `json:"total_amount_detail"`
	RemainingAmount       string   `json:"remaining_amount"`
	RemainingAmountDetail string   `json:"remaining_amount_detail"`
	Symbol                string   `json:"symbol"`
	TotalCount            string   `json:"total_count"`
	ClaimedCount          string   `json:"claimed_count"`
	RemainingCount        string   `json:"remaining_count"`
	ProgressPercent       int      `json:"progress_percent"`
	Exhausted             bool     `json:"exhausted"`
	Status                string   `json:"status"`
	Claimers              []string `json:"claimers"`
}

// NewPacketView 构建红包展示数据
func NewPacketView(p *models.Packet, opts ViewOptions) PacketView {
	claimers := make([]string, len(p.Claimers))
	copy(claimers, p.Claimers)

	return PacketView{
		ID:                    p.ID,
		Creator:               p.Creator,
		CreatorShort:          ShortAddress(p.Creator),
		TotalAmount:           FormatAmount(p.TotalAmount, opts.Decimals),
		TotalAmountDetail:     FormatAmountPrecision(p.TotalAmount, opts.Decimals, DetailPrecision),
		RemainingAmount:       FormatAmount(p.RemainingAmount, opts.Decimals),
		RemainingAmountDetail: FormatAmountPrecision(p.RemainingAmount, opts.Decimals, DetailPrecision),
		Symbol:                opts.Symbol,
		TotalCount:            p.TotalCount.String(),
		ClaimedCount:          p.ClaimedCount.String(),
		RemainingCount:        RemainingCount(p).String(),
		ProgressPercent:       ProgressPercent(p),
		Exhausted:             IsExhausted(p),
		Status:                StatusTag(p),
		Claimers:              claimers,
	}
}

// NewPacketViews 批量构建
func NewPacketViews(packets []models.Packet, opts ViewOptions) []PacketView {
	views := make([]PacketView, 0, len(packets))
	for i := range packets {
		views = append(views, NewPacketView(&packets[i], opts))
	}
	return views
}

// ClaimView 领取记录展示数据
type ClaimView struct {
	ID           string `json:"id"`
	Claimer      string `json:"claimer"`
	ClaimerShort string `json:"claimer_short"`
	Amount       string `json:"amount"`
	Time         string `json:"time"`
	TxHash       string `json:"tx_hash"`
	ExplorerURL  string `json:"explorer_url,omitempty"`
}

// NewClaimView 构建领取记录展示数据
func NewClaimView(c *models.Claim, opts ViewOptions) ClaimView {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return ClaimView{
		ID:           c.ID,
		Claimer:      c.Claimer,
		ClaimerShort: HistoryAddress(c.Claimer),
		Amount:       FormatUnits(c.Amount, opts.Decimals),
		Time:         c.BlockTimestamp.In(loc).Format("2006-01-02 15:04:05"),
		TxHash:       c.TxHash,
		ExplorerURL:  TxURL(opts.ExplorerURL, c.TxHash),
	}
}

// NewClaimViews 批量构建
func NewClaimViews(claims []models.Claim, opts ViewOptions) []ClaimView {
	views := make([]ClaimView, 0, len(claims))
	for i := range claims {
		views = append(views, NewClaimView(&claims[i], opts))
	}
	return views
}

// TxURL 区块浏览器交易链接
func TxURL(explorer, hash string) string {
	if explorer == "" || hash == "" {
		return ""
	}
	return strings.TrimSuffix(explorer, "/") + "/tx/" + hash
}
