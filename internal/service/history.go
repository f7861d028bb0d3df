package service

import (
	"context"

	"github.com/patrickmn/go-cache"

	"github.com/smysle/redpacket-go/internal/metrics"
	"github.com/smysle/redpacket-go/internal/models"
	"github.com/smysle/redpacket-go/internal/notify"
	"github.com/smysle/redpacket-go/pkg/logger"
)

// TogglePacket 展开或收起红包（手风琴，最多展开一个）。展开时按需加载领取记录。
func (s *RedPacketService) TogglePacket(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if s.expanded == id {
		s.expanded = ""
		s.mu.Unlock()
		return false, nil
	}
	s.expanded = id
	s.mu.Unlock()

	_, err := s.LoadClaimHistory(ctx, id)
	return true, err
}

// Expanded 当前展开的红包 ID
func (s *RedPacketService) Expanded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

// ClaimHistory 已缓存的领取记录
func (s *RedPacketService) ClaimHistory(id string) ([]models.Claim, bool) {
	v, ok := s.history.Get(id)
	if !ok {
		return nil, false
	}
	return v.([]models.Claim), true
}

// LoadClaimHistory 领取记录每个红包只查询一次，并发的重复请求共享同一次查询
func (s *RedPacketService) LoadClaimHistory(ctx context.Context, id string) ([]models.Claim, error) {
	if claims, ok := s.ClaimHistory(id); ok {
		metrics.HistoryCacheHit()
		return claims, nil
	}

	v, err, shared := s.flights.Do(id, func() (interface{}, error) {
		return s.fetchHistory(ctx, id)
	})
	if shared {
		logger.Debug().Str("packet_id", id).Msg("复用进行中的领取记录查询")
	}
	if err != nil {
		return nil, err
	}
	return v.([]models.Claim), nil
}

func (s *RedPacketService) fetchHistory(ctx context.Context, id string) ([]models.Claim, error) {
	// singleflight 返回之前可能已有一次查询写入缓存
	if claims, ok := s.ClaimHistory(id); ok {
		metrics.HistoryCacheHit()
		return claims, nil
	}
	metrics.HistoryCacheMiss()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	gen := s.historyGen[id]
	s.historyLoading[id]++
	s.mu.Unlock()

	claims, err := s.source.ListClaims(ctx, id, s.opts.ClaimsPageSize)

	s.mu.Lock()
	s.historyLoading[id]--
	if s.historyLoading[id] <= 0 {
		delete(s.historyLoading, id)
	}
	closed := s.closed
	current := gen == s.historyGen[id]
	if err == nil && !closed && current {
		s.history.Set(id, claims, cache.NoExpiration)
	}
	s.mu.Unlock()

	if err != nil {
		if !closed {
			s.notify(notify.LevelError, msgHistoryFailed)
		}
		logger.Error().Err(err).Str("packet_id", id).Msg("加载领取记录失败")
		return nil, err
	}
	if closed {
		return nil, ErrClosed
	}
	if !current {
		logger.Debug().Str("packet_id", id).Msg("领取记录在查询期间已失效，不写入缓存")
	}
	return claims, nil
}

// invalidateHistory 丢弃缓存的领取记录，返回该红包是否正处于展开状态
func (s *RedPacketService) invalidateHistory(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyGen[id]++
	s.history.Delete(id)
	s.flights.Forget(id)
	return s.expanded == id
}
