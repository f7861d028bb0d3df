// Package service 红包视图状态编排：列表加载、刷新、领取记录、资格检查与交易提交
package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/events"
	"github.com/smysle/redpacket-go/internal/ledger"
	"github.com/smysle/redpacket-go/internal/metrics"
	"github.com/smysle/redpacket-go/internal/models"
	"github.com/smysle/redpacket-go/internal/notify"
	"github.com/smysle/redpacket-go/pkg/logger"
)

// PacketSource 索引服务，*indexer.Client 满足该接口
type PacketSource interface {
	ListPackets(ctx context.Context) ([]models.Packet, error)
	ListPacketsByCreator(ctx context.Context, creator string) ([]models.Packet, error)
	ListClaims(ctx context.Context, packetID string, first int) ([]models.Claim, error)
}

// Ledger 合约客户端，*ledger.Client 满足该接口
type Ledger interface {
	Address() string
	HasClaimed(ctx context.Context, packetID *big.Int, viewer string) (bool, error)
	CreatePacket(ctx context.Context, totalShares, deposit *big.Int) (ledger.TxHandle, error)
	ClaimPacket(ctx context.Context, packetID *big.Int) (ledger.TxHandle, error)
	WatchTransaction(ctx context.Context, h ledger.TxHandle) <-chan ledger.TxEvent
}

// Options 服务参数
type Options struct {
	Decimals       int32
	ClaimsPageSize int
	Notifier       notify.Notifier // 额外的通知出口，如 Telegram 群组
	RecentLimit    int
}

// Snapshot 视图状态快照
type Snapshot struct {
	Packets        []models.Packet `json:"packets"`
	Loaded         bool            `json:"loaded"`
	Loading        bool            `json:"loading"`
	Refreshing     bool            `json:"refreshing"`
	Expanded       string          `json:"expanded,omitempty"`
	HistoryLoading []string        `json:"history_loading,omitempty"`
	Token          uint64          `json:"token"`
	Viewer         string          `json:"viewer,omitempty"`
}

// RedPacketService 红包视图状态的唯一持有者
type RedPacketService struct {
	source PacketSource
	ledger Ledger
	bus    *events.Bus
	opts   Options

	mu             sync.Mutex
	packets        []models.Packet
	loaded         bool
	loading        int
	refreshing     int
	seq            uint64
	expanded       string // 整个进程共用一个展开状态
	historyLoading map[string]int
	historyGen     map[string]uint64
	closed         bool

	history  *cache.Cache
	flights  singleflight.Group
	recorder *notify.Recorder
	notifier notify.Notifier

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe []func()
}

// NewRedPacketService 创建服务并订阅交易事件
func NewRedPacketService(source PacketSource, l Ledger, bus *events.Bus, opts Options) (*RedPacketService, error) {
	if opts.Decimals <= 0 {
		opts.Decimals = 18
	}
	recorder := notify.NewRecorder(opts.RecentLimit)

	ctx, cancel := context.WithCancel(context.Background())
	s := &RedPacketService{
		source:         source,
		ledger:         l,
		bus:            bus,
		opts:           opts,
		historyLoading: make(map[string]int),
		historyGen:     make(map[string]uint64),
		history:        cache.New(cache.NoExpiration, 0),
		recorder:       recorder,
		notifier:       notify.Multi{recorder, notify.Log{}, opts.Notifier},
		ctx:            ctx,
		cancel:         cancel,
	}

	for topic, fn := range map[string]events.TxHandler{
		events.TopicTxConfirmed: s.onConfirmed,
		events.TopicTxFailed:    s.onFailed,
	} {
		unsub, err := bus.SubscribeTx(topic, fn)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("订阅交易事件失败: %w", err)
		}
		s.unsubscribe = append(s.unsubscribe, unsub)
	}

	return s, nil
}

// Close 停止接收结果，等待交易跟踪结束
func (s *RedPacketService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.wg.Wait()
	logger.Info().Msg("红包服务已关闭")
}

// LoadPackets 初次加载红包列表
func (s *RedPacketService) LoadPackets(ctx context.Context) error {
	return s.fetchPackets(ctx, false)
}

// RefreshPackets 手动刷新，失败时保留上一次的列表
func (s *RedPacketService) RefreshPackets(ctx context.Context) error {
	return s.fetchPackets(ctx, true)
}

// EnsureLoaded 列表尚未加载成功时加载一次
func (s *RedPacketService) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.LoadPackets(ctx)
}

// fetchPackets 每次请求分配递增令牌，只有最新令牌的响应会被应用
func (s *RedPacketService) fetchPackets(ctx context.Context, refresh bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seq++
	token := s.seq
	if refresh {
		s.refreshing++
	} else {
		s.loading++
	}
	s.mu.Unlock()

	packets, err := s.source.ListPackets(ctx)

	s.mu.Lock()
	if refresh {
		s.refreshing--
	} else {
		s.loading--
	}
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if token != s.seq {
		s.mu.Unlock()
		metrics.StaleResponse()
		logger.Debug().Uint64("token", token).Msg("丢弃过期的红包列表响应")
		return nil
	}
	if err == nil {
		s.packets = packets
		s.loaded = true
	}
	s.mu.Unlock()

	if err != nil {
		s.notify(notify.LevelError, msgLoadFailed)
		logger.Error().Err(err).Bool("refresh", refresh).Msg("加载红包列表失败")
		return err
	}

	logger.Debug().Int("count", len(packets)).Uint64("token", token).Msg("红包列表已更新")
	return nil
}

// Packets 当前列表（全部，按 ID 倒序）
func (s *RedPacketService) Packets() []models.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Packet(nil), s.packets...)
}

// ClaimablePackets 还有剩余份数的红包
func (s *RedPacketService) ClaimablePackets() []models.Packet {
	return derive.Claimable(s.Packets())
}

// Packet 按 ID 查找当前列表中的红包
func (s *RedPacketService) Packet(id string) (models.Packet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *RedPacketService) findLocked(id string) (models.Packet, bool) {
	for _, p := range s.packets {
		if p.ID == id {
			return p, true
		}
	}
	return models.Packet{}, false
}

// Snapshot 视图状态快照
func (s *RedPacketService) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Packets:    append([]models.Packet(nil), s.packets...),
		Loaded:     s.loaded,
		Loading:    s.loading > 0,
		Refreshing: s.refreshing > 0,
		Expanded:   s.expanded,
		Token:      s.seq,
	}
	for id, n := range s.historyLoading {
		if n > 0 {
			snap.HistoryLoading = append(snap.HistoryLoading, id)
		}
	}
	s.mu.Unlock()

	snap.Viewer = s.Viewer()
	return snap
}

// Viewer 当前签名钱包地址，未配置时为空
func (s *RedPacketService) Viewer() string {
	if s.ledger == nil {
		return ""
	}
	return s.ledger.Address()
}

// Notifications 最近的通知，最新的在前
func (s *RedPacketService) Notifications() []notify.Notification {
	return s.recorder.Recent()
}

// Decimals 代币精度
func (s *RedPacketService) Decimals() int32 {
	return s.opts.Decimals
}

// LoadCreatorPackets 查询某地址创建的红包，不影响当前列表
func (s *RedPacketService) LoadCreatorPackets(ctx context.Context, creator string) ([]models.Packet, error) {
	if err := validateAddress("creator", creator); err != nil {
		return nil, err
	}

	packets, err := s.source.ListPacketsByCreator(ctx, creator)
	if err != nil {
		s.notify(notify.LevelError, msgCreatorFailed)
		logger.Error().Err(err).Str("creator", creator).Msg("查询创建记录失败")
		return nil, err
	}
	return packets, nil
}

// CheckEligibility 实时查询 viewer 能否领取，viewer 为空时不发起查询
func (s *RedPacketService) CheckEligibility(ctx context.Context, id, viewer string) (models.Eligibility, error) {
	p, ok := s.Packet(id)
	if !ok {
		return models.Eligibility{}, ErrPacketNotFound
	}

	el := models.Eligibility{
		PacketID:  id,
		Viewer:    viewer,
		Exhausted: derive.IsExhausted(&p),
	}
	if viewer == "" {
		return el, nil
	}
	if err := validateAddress("viewer", viewer); err != nil {
		return el, err
	}

	packetID, err := models.ParsePacketID(id)
	if err != nil {
		return el, err
	}

	claimed, err := s.ledger.HasClaimed(ctx, packetID, viewer)
	if err != nil {
		s.notify(notify.LevelError, msgEligibility)
		logger.Error().Err(err).Str("packet_id", id).Str("viewer", viewer).Msg("查询领取状态失败")
		return el, err
	}

	el.Checked = true
	el.HasClaimed = claimed
	el.Eligible = !el.Exhausted && !claimed
	return el, nil
}

func (s *RedPacketService) notify(level notify.Level, message string) {
	s.notifier.Notify(s.ctx, notify.New(level, message))
}
