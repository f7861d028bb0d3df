// Package handlers Bot 命令与回调处理器
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/redpacket-go/internal/bot/keyboards"
	"github.com/smysle/redpacket-go/internal/bot/utils"
	"github.com/smysle/redpacket-go/internal/config"
	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/service"
	"github.com/smysle/redpacket-go/pkg/imggen"
	"github.com/smysle/redpacket-go/pkg/logger"
)

const (
	requestTimeout = 30 * time.Second
	errorTTL       = 30 // 错误提示保留秒数
)

// Handler 处理器集合
type Handler struct {
	svc  *service.RedPacketService
	cfg  config.BotConfig
	view derive.ViewOptions
}

// New 创建处理器
func New(svc *service.RedPacketService, cfg config.BotConfig, view derive.ViewOptions) *Handler {
	return &Handler{svc: svc, cfg: cfg, view: view}
}

// IsAdmin 是否为管理员
func (h *Handler) IsAdmin(userID int64) bool {
	return h.cfg.IsAdmin(userID)
}

func (h *Handler) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// replyError 错误提示：回调用弹窗，消息用会自动删除的回复
func (h *Handler) replyError(c tele.Context, err error) error {
	text := ErrorText(err)
	if c.Callback() != nil {
		utils.Respond(c, text, true)
		return nil
	}
	return utils.SendAndDelete(c, text, errorTTL)
}

// Start /start 开始面板
func (h *Handler) Start(c tele.Context) error {
	isAdmin := c.Sender() != nil && h.IsAdmin(c.Sender().ID)
	return utils.EditOrReply(c, FormatWelcome(h.cfg.Name, h.svc.Viewer()),
		keyboards.StartKeyboard(isAdmin), tele.ModeMarkdown)
}

// Packets /packets 可领取的红包
func (h *Handler) Packets(c tele.Context) error {
	ctx, cancel := h.context()
	defer cancel()

	if err := h.svc.EnsureLoaded(ctx); err != nil {
		return h.replyError(c, err)
	}
	return h.sendClaimable(ctx, c)
}

func (h *Handler) sendClaimable(ctx context.Context, c tele.Context) error {
	packets := h.svc.ClaimablePackets()
	views := derive.NewPacketViews(packets, h.view)

	viewer := h.svc.Viewer()
	buttons := make([]keyboards.PacketButton, 0, len(packets))
	for _, p := range packets {
		buttons = append(buttons, keyboards.PacketButton{ID: p.ID, Button: h.buttonFor(ctx, p.ID, viewer)})
	}

	return utils.EditOrReply(c, FormatPacketList(views, true),
		keyboards.PacketListKeyboard(buttons), tele.ModeMarkdown, tele.NoPreview)
}

// buttonFor 实时查询领取状态；查询失败时按可领取展示，提交前会再次检查
func (h *Handler) buttonFor(ctx context.Context, id, viewer string) derive.ButtonState {
	el, err := h.svc.CheckEligibility(ctx, id, viewer)
	if err != nil {
		logger.Debug().Err(err).Str("packet_id", id).Msg("查询领取状态失败")
		return derive.ButtonClaimable
	}
	return derive.ButtonFor(el)
}

// Log /log 全部红包
func (h *Handler) Log(c tele.Context) error {
	ctx, cancel := h.context()
	defer cancel()

	if err := h.svc.EnsureLoaded(ctx); err != nil {
		return h.replyError(c, err)
	}
	views := derive.NewPacketViews(h.svc.Packets(), h.view)
	return utils.EditOrReply(c, FormatPacketList(views, false), keyboards.CloseKeyboard(), tele.ModeMarkdown)
}

// Refresh /refresh 手动刷新
func (h *Handler) Refresh(c tele.Context) error {
	ctx, cancel := h.context()
	defer cancel()

	if err := h.svc.RefreshPackets(ctx); err != nil {
		return h.replyError(c, err)
	}
	utils.Respond(c, "✅ 已刷新", false)
	return h.sendClaimable(ctx, c)
}

// History /history <ID> 领取记录
func (h *Handler) History(c tele.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return c.Send("用法: `/history <红包ID>`", tele.ModeMarkdown)
	}
	return h.showHistory(c, args[0], 1)
}

func (h *Handler) showHistory(c tele.Context, id string, page int) error {
	if !validPacketID(id) {
		return c.Send(invalidPacketIDText)
	}

	ctx, cancel := h.context()
	defer cancel()

	claims, err := h.svc.LoadClaimHistory(ctx, id)
	if err != nil {
		return h.replyError(c, err)
	}

	views := derive.NewClaimViews(claims, h.view)
	total := keyboards.TotalPages(len(views), HistoryPageSize)
	if page > total {
		page = total
	}
	return utils.EditOrReply(c, FormatHistory(id, views, h.view.Symbol, page),
		keyboards.HistoryPagination(id, page, total), tele.ModeMarkdown, tele.NoPreview)
}

// toggle 展开或收起红包详情
func (h *Handler) toggle(c tele.Context, id string) error {
	if !validPacketID(id) {
		return c.Send(invalidPacketIDText)
	}

	ctx, cancel := h.context()
	defer cancel()

	if err := h.svc.EnsureLoaded(ctx); err != nil {
		return h.replyError(c, err)
	}

	expanded, err := h.svc.TogglePacket(ctx, id)
	if err != nil {
		return h.replyError(c, err)
	}
	if !expanded {
		return h.sendClaimable(ctx, c)
	}

	p, ok := h.svc.Packet(id)
	if !ok {
		return h.replyError(c, service.ErrPacketNotFound)
	}
	view := derive.NewPacketView(&p, h.view)
	button := h.buttonFor(ctx, id, h.svc.Viewer())
	return utils.EditOrReply(c, FormatPacketDetail(view),
		keyboards.PacketDetailKeyboard(id, button), tele.ModeMarkdown)
}

// card 发送红包卡片图片，生成失败时退回文字详情
func (h *Handler) card(c tele.Context, id string) error {
	if !validPacketID(id) {
		return c.Send(invalidPacketIDText)
	}

	ctx, cancel := h.context()
	defer cancel()

	if err := h.svc.EnsureLoaded(ctx); err != nil {
		return h.replyError(c, err)
	}
	p, ok := h.svc.Packet(id)
	if !ok {
		return h.replyError(c, service.ErrPacketNotFound)
	}
	view := derive.NewPacketView(&p, h.view)

	imgData, err := imggen.GenerateCard(view.Card())
	if err != nil {
		logger.Error().Err(err).Str("packet_id", id).Msg("生成红包卡片失败，使用文本模式")
		return c.Send(FormatPacketDetail(view), tele.ModeMarkdown)
	}

	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(imgData)),
		Caption: fmt.Sprintf("🧧 红包 #%s · %s", view.ID, view.Status),
	}
	return c.Send(photo)
}

// Claim /claim <ID> 使用 Bot 钱包领取（管理员）
func (h *Handler) Claim(c tele.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return c.Send("用法: `/claim <红包ID>`", tele.ModeMarkdown)
	}
	return h.claim(c, args[0])
}

func (h *Handler) claim(c tele.Context, id string) error {
	if !validPacketID(id) {
		return c.Send(invalidPacketIDText)
	}

	ctx, cancel := h.context()
	defer cancel()

	if err := h.svc.EnsureLoaded(ctx); err != nil {
		return h.replyError(c, err)
	}

	tx, err := h.svc.SubmitClaim(ctx, id)
	if err != nil {
		return h.replyError(c, err)
	}

	utils.Respond(c, "⏳ 交易已提交", false)
	return c.Send(FormatTxSubmitted(tx, h.view.ExplorerURL), tele.ModeMarkdown, tele.NoPreview)
}

// Send /send <金额> <个数> 使用 Bot 钱包发红包（管理员）
func (h *Handler) Send(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send(
			"🧧 *发红包*\n\n"+
				"用法: `/send <金额> <个数>`\n\n"+
				"示例: `/send 0.1 10` - 发 0.1 "+h.view.Symbol+"，分成 10 份",
			tele.ModeMarkdown,
		)
	}

	ctx, cancel := h.context()
	defer cancel()

	tx, err := h.svc.SubmitCreate(ctx, args[0], args[1])
	if err != nil {
		return h.replyError(c, err)
	}
	return c.Send(FormatTxSubmitted(tx, h.view.ExplorerURL), tele.ModeMarkdown, tele.NoPreview)
}

// Mine /mine Bot 钱包创建的红包（管理员）
func (h *Handler) Mine(c tele.Context) error {
	viewer := h.svc.Viewer()
	if viewer == "" {
		return h.replyError(c, service.ErrWalletNotConnected)
	}

	ctx, cancel := h.context()
	defer cancel()

	packets, err := h.svc.LoadCreatorPackets(ctx, viewer)
	if err != nil {
		return h.replyError(c, err)
	}

	text := FormatCreatorPackets(derive.NewPacketViews(packets, h.view))
	return utils.EditOrReply(c, text, keyboards.CloseKeyboard(), tele.ModeMarkdown)
}

// OnCallback 回调查询处理器
func (h *Handler) OnCallback(c tele.Context) error {
	action, parts := ParseCallback(c.Callback().Data)
	logger.Debug().Str("raw_data", c.Callback().Data).Str("action", action).Msg("收到回调")

	switch action {
	case "noop":
		return c.Respond()
	case "close":
		utils.Respond(c, "", false)
		return c.Delete()
	case "packets":
		utils.Respond(c, "", false)
		return h.Packets(c)
	case "log":
		utils.Respond(c, "", false)
		return h.Log(c)
	case "refresh":
		return h.Refresh(c)
	case "mine":
		if !h.IsAdmin(c.Sender().ID) {
			utils.Respond(c, "❌ 您没有权限执行此操作", true)
			return nil
		}
		utils.Respond(c, "", false)
		return h.Mine(c)
	case "toggle":
		if len(parts) < 2 {
			return c.Respond(&tele.CallbackResponse{Text: "无效的红包"})
		}
		utils.Respond(c, "", false)
		return h.toggle(c, parts[1])
	case "history":
		if len(parts) < 2 {
			return c.Respond(&tele.CallbackResponse{Text: "无效的红包"})
		}
		page := 1
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[2]); err == nil {
				page = n
			}
		}
		utils.Respond(c, "", false)
		return h.showHistory(c, parts[1], page)
	case "card":
		if len(parts) < 2 {
			return c.Respond(&tele.CallbackResponse{Text: "无效的红包"})
		}
		utils.Respond(c, "", false)
		return h.card(c, parts[1])
	case "claim":
		if len(parts) < 2 {
			return c.Respond(&tele.CallbackResponse{Text: "无效的红包"})
		}
		if !h.IsAdmin(c.Sender().ID) {
			utils.Respond(c, "❌ 仅管理员可使用 Bot 钱包领取", true)
			return nil
		}
		return h.claim(c, parts[1])
	default:
		logger.Warn().Str("action", action).Msg("未知回调")
		return c.Respond(&tele.CallbackResponse{Text: "未知操作"})
	}
}

// ParseCallback 解析回调数据 "\f{action}|{param}..."
func ParseCallback(data string) (string, []string) {
	data = strings.TrimPrefix(data, "\f")
	parts := strings.Split(data, "|")
	return parts[0], parts
}
