package service

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/errs"
	"github.com/smysle/redpacket-go/internal/ledger"
	"github.com/smysle/redpacket-go/internal/models"
	"github.com/smysle/redpacket-go/internal/notify"
	"github.com/smysle/redpacket-go/pkg/logger"
)

// SubmitClaim 领取红包。提交前重新实时检查资格，已领取或已抢光时不提交。
func (s *RedPacketService) SubmitClaim(ctx context.Context, id string) (ledger.TxHandle, error) {
	viewer := s.Viewer()
	if viewer == "" {
		s.notify(notify.LevelWarning, ErrWalletNotConnected.Error())
		return ledger.TxHandle{}, ErrWalletNotConnected
	}

	p, ok := s.Packet(id)
	if !ok {
		return ledger.TxHandle{}, ErrPacketNotFound
	}
	if derive.IsExhausted(&p) {
		return ledger.TxHandle{}, ErrPacketExhausted
	}

	packetID, err := models.ParsePacketID(id)
	if err != nil {
		return ledger.TxHandle{}, err
	}

	claimed, err := s.ledger.HasClaimed(ctx, packetID, viewer)
	if err != nil {
		s.notify(notify.LevelError, msgEligibility)
		return ledger.TxHandle{}, err
	}
	if claimed {
		return ledger.TxHandle{}, ErrAlreadyClaimed
	}

	h, err := s.ledger.ClaimPacket(ctx, packetID)
	if err != nil {
		s.notify(notify.LevelError, msgClaimFailed)
		logger.Error().Err(err).Str("packet_id", id).Msg("提交领取交易失败")
		return ledger.TxHandle{}, err
	}

	s.notify(notify.LevelInfo, msgClaimSubmitted)
	if err := s.track(h); err != nil {
		return h, err
	}
	return h, nil
}

// SubmitCreate 创建红包，amount 为代币单位的十进制数，count 为份数
func (s *RedPacketService) SubmitCreate(ctx context.Context, amount, count string) (ledger.TxHandle, error) {
	req, err := ValidateCreate(amount, count, s.opts.Decimals)
	if err != nil {
		return ledger.TxHandle{}, err
	}

	if s.Viewer() == "" {
		s.notify(notify.LevelWarning, ErrWalletNotConnected.Error())
		return ledger.TxHandle{}, ErrWalletNotConnected
	}

	h, err := s.ledger.CreatePacket(ctx, req.TotalShares, req.Deposit)
	if err != nil {
		s.notify(notify.LevelError, msgCreateFailed)
		logger.Error().Err(err).Str("amount", amount).Str("count", count).Msg("提交创建交易失败")
		return ledger.TxHandle{}, err
	}

	s.notify(notify.LevelInfo, msgCreateSubmit)
	if err := s.track(h); err != nil {
		return h, err
	}
	return h, nil
}

// track 跟踪交易直到最终状态，所有状态转发到事件总线
func (s *RedPacketService) track(h ledger.TxHandle) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	events := s.ledger.WatchTransaction(s.ctx, h)
	go func() {
		defer s.wg.Done()
		for ev := range events {
			s.bus.PublishTx(ev)
		}
	}()
	return nil
}

// onConfirmed 交易确认后无条件重新拉取列表；领取交易使对应红包的领取记录失效
func (s *RedPacketService) onConfirmed(ev ledger.TxEvent) {
	if s.isClosed() {
		return
	}

	h := ev.Handle
	switch h.Kind {
	case ledger.TxClaim:
		s.notify(notify.LevelSuccess, msgClaimSuccess)
	case ledger.TxCreate:
		s.notify(notify.LevelSuccess, fmt.Sprintf(msgCreateSuccessF, shortHash(h.Hash)))
	}

	logger.Info().
		Str("tx", h.Hash).
		Str("kind", string(h.Kind)).
		Uint64("block", ev.BlockNumber).
		Msg("交易已确认，重新加载红包列表")

	if err := s.fetchPackets(s.ctx, true); err != nil {
		logger.Warn().Err(err).Str("tx", h.Hash).Msg("交易确认后刷新失败")
	}

	if h.Kind == ledger.TxClaim && h.PacketID != "" {
		if s.invalidateHistory(h.PacketID) {
			if _, err := s.LoadClaimHistory(s.ctx, h.PacketID); err != nil {
				logger.Warn().Err(err).Str("packet_id", h.PacketID).Msg("重新加载领取记录失败")
			}
		}
	}
}

func (s *RedPacketService) onFailed(ev ledger.TxEvent) {
	if s.isClosed() {
		return
	}

	msg := msgCreateFailed
	if ev.Handle.Kind == ledger.TxClaim {
		msg = msgClaimFailed
	}
	s.notify(notify.LevelError, msg)
	logger.Error().Err(ev.Err).Str("tx", ev.Handle.Hash).Str("kind", string(ev.Handle.Kind)).Msg("交易失败")
}

func (s *RedPacketService) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func validateAddress(field, addr string) error {
	if !common.IsHexAddress(addr) {
		return &errs.ValidationError{Field: field, Message: "无效的钱包地址"}
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return hash[:10]
}
