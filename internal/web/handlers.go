package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"

	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/errs"
	"github.com/smysle/redpacket-go/internal/ledger"
	"github.com/smysle/redpacket-go/internal/models"
	"github.com/smysle/redpacket-go/internal/service"
	pkglogger "github.com/smysle/redpacket-go/pkg/logger"
)

// writeError 将服务错误映射为 HTTP 状态码
func writeError(c *fiber.Ctx, err error) error {
	var v *errs.ValidationError
	switch {
	case errors.As(err, &v):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": v.Message,
			"field": v.Field,
		})
	case errors.Is(err, service.ErrPacketNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPacketExhausted), errors.Is(err, service.ErrAlreadyClaimed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrWalletNotConnected):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrClosed):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errs.IsQuery(err), errs.IsSubmission(err):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	default:
		pkglogger.Error().Err(err).Str("path", c.Path()).Msg("请求处理失败")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// packetID 校验路径中的红包 ID
func packetID(c *fiber.Ctx) (string, error) {
	id := fiberutils.CopyString(c.Params("id"))
	if _, err := models.ParsePacketID(id); err != nil {
		return "", &errs.ValidationError{Field: "id", Message: "无效的红包 ID"}
	}
	return id, nil
}

// PacketListResponse 红包列表响应
type PacketListResponse struct {
	View       string              `json:"view"`
	Loading    bool                `json:"loading"`
	Refreshing bool                `json:"refreshing"`
	Packets    []derive.PacketView `json:"packets"`
}

// listPackets 红包列表，view=claimable 只返回可领取的
func (s *Server) listPackets(c *fiber.Ctx) error {
	if err := s.svc.EnsureLoaded(c.UserContext()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(s.packetList(c.Query("view", "all")))
}

func (s *Server) packetList(view string) PacketListResponse {
	snap := s.svc.Snapshot()
	packets := snap.Packets
	if view == "claimable" {
		packets = derive.Claimable(packets)
	} else {
		view = "all"
	}
	return PacketListResponse{
		View:       view,
		Loading:    snap.Loading,
		Refreshing: snap.Refreshing,
		Packets:    derive.NewPacketViews(packets, s.view),
	}
}

// refreshPackets 手动刷新
func (s *Server) refreshPackets(c *fiber.Ctx) error {
	if err := s.svc.RefreshPackets(c.UserContext()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(s.packetList(c.Query("view", "all")))
}

// CreateRequest 创建红包请求，金额为代币单位
type CreateRequest struct {
	TotalAmount string `json:"total_amount"`
	TotalCount  string `json:"total_count"`
}

// TxResponse 交易提交响应
type TxResponse struct {
	Hash        string `json:"hash"`
	Kind        string `json:"kind"`
	PacketID    string `json:"packet_id,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

func (s *Server) txResponse(h ledger.TxHandle) TxResponse {
	return TxResponse{
		Hash:        h.Hash,
		Kind:        string(h.Kind),
		PacketID:    h.PacketID,
		ExplorerURL: derive.TxURL(s.view.ExplorerURL, h.Hash),
	}
}

// createPacket 创建红包
func (s *Server) createPacket(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		pkglogger.Warn().Err(err).Msg("解析创建红包请求失败")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的请求体",
		})
	}

	h, err := s.svc.SubmitCreate(c.UserContext(), req.TotalAmount, req.TotalCount)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(s.txResponse(h))
}

// ClaimHistoryResponse 领取记录响应
type ClaimHistoryResponse struct {
	PacketID string             `json:"packet_id"`
	Claims   []derive.ClaimView `json:"claims"`
}

// claimHistory 领取记录，首次请求时加载
func (s *Server) claimHistory(c *fiber.Ctx) error {
	id, err := packetID(c)
	if err != nil {
		return writeError(c, err)
	}

	claims, err := s.svc.LoadClaimHistory(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(ClaimHistoryResponse{
		PacketID: id,
		Claims:   derive.NewClaimViews(claims, s.view),
	})
}

// togglePacket 展开/收起
func (s *Server) togglePacket(c *fiber.Ctx) error {
	id, err := packetID(c)
	if err != nil {
		return writeError(c, err)
	}

	expanded, err := s.svc.TogglePacket(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}

	resp := fiber.Map{
		"packet_id": id,
		"expanded":  expanded,
	}
	if expanded {
		claims, _ := s.svc.ClaimHistory(id)
		resp["claims"] = derive.NewClaimViews(claims, s.view)
	}
	return c.JSON(resp)
}

// EligibilityResponse 领取资格响应
type EligibilityResponse struct {
	models.Eligibility
	Button        string `json:"button"`
	ButtonLabel   string `json:"button_label"`
	ButtonEnabled bool   `json:"button_enabled"`
}

// eligibility 实时查询领取资格；未传 viewer 时使用服务端签名钱包
func (s *Server) eligibility(c *fiber.Ctx) error {
	id, err := packetID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.svc.EnsureLoaded(c.UserContext()); err != nil {
		return writeError(c, err)
	}

	viewer := c.Query("viewer")
	if viewer == "" {
		viewer = s.svc.Viewer()
	}

	el, err := s.svc.CheckEligibility(c.UserContext(), id, viewer)
	if err != nil {
		return writeError(c, err)
	}

	button := derive.ButtonFor(el)
	return c.JSON(EligibilityResponse{
		Eligibility:   el,
		Button:        string(button),
		ButtonLabel:   button.Label(),
		ButtonEnabled: button.Enabled(),
	})
}

// claimPacket 使用服务端签名钱包领取
func (s *Server) claimPacket(c *fiber.Ctx) error {
	id, err := packetID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.svc.EnsureLoaded(c.UserContext()); err != nil {
		return writeError(c, err)
	}

	h, err := s.svc.SubmitClaim(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(s.txResponse(h))
}

// creatorPackets 某地址创建的红包
func (s *Server) creatorPackets(c *fiber.Ctx) error {
	address := fiberutils.CopyString(c.Params("address"))
	packets, err := s.svc.LoadCreatorPackets(c.UserContext(), address)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"creator": address,
		"packets": derive.NewPacketViews(packets, s.view),
	})
}

// notifications 最近的通知
func (s *Server) notifications(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"notifications": s.svc.Notifications(),
	})
}
