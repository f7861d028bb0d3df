package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smysle/redpacket-go/internal/errs"
	"github.com/smysle/redpacket-go/internal/events"
	"github.com/smysle/redpacket-go/internal/ledger"
	"github.com/smysle/redpacket-go/internal/models"
	"github.com/smysle/redpacket-go/internal/notify"
)

const (
	viewerAddr  = "0x00000000000000000000000000000000000000a1"
	creatorAddr = "0x00000000000000000000000000000000000000c1"
	txHash      = "0x1111111111111111111111111111111111111111111111111111111111111111"
)

func packet(id string, total, claimed int64) models.Packet {
	return models.Packet{
		ID:              id,
		Creator:         creatorAddr,
		TotalAmount:     big.NewInt(1e18),
		TotalCount:      big.NewInt(total),
		ClaimedCount:    big.NewInt(claimed),
		RemainingAmount: big.NewInt(1e17),
	}
}

type fakeSource struct {
	listCalls   atomic.Int32
	claimsCalls atomic.Int32
	list        func(call int32) ([]models.Packet, error)
	claims      func(id string) ([]models.Claim, error)
	byCreator   []models.Packet
}

func (f *fakeSource) ListPackets(ctx context.Context) ([]models.Packet, error) {
	n := f.listCalls.Add(1)
	if f.list == nil {
		return nil, nil
	}
	return f.list(n)
}

func (f *fakeSource) ListPacketsByCreator(ctx context.Context, creator string) ([]models.Packet, error) {
	return f.byCreator, nil
}

func (f *fakeSource) ListClaims(ctx context.Context, packetID string, first int) ([]models.Claim, error) {
	f.claimsCalls.Add(1)
	if f.claims == nil {
		return []models.Claim{{ID: "c-" + packetID, PacketID: packetID, Claimer: viewerAddr, Amount: big.NewInt(1)}}, nil
	}
	return f.claims(packetID)
}

type fakeLedger struct {
	address     string
	claimed     bool
	hasErr      error
	submitErr   error
	final       ledger.TxStatus
	hasCalls    atomic.Int32
	claimCalls  atomic.Int32
	createCalls atomic.Int32

	mu       sync.Mutex
	deposits []*big.Int
}

func (f *fakeLedger) Address() string { return f.address }

func (f *fakeLedger) HasClaimed(ctx context.Context, packetID *big.Int, viewer string) (bool, error) {
	f.hasCalls.Add(1)
	return f.claimed, f.hasErr
}

func (f *fakeLedger) CreatePacket(ctx context.Context, totalShares, deposit *big.Int) (ledger.TxHandle, error) {
	f.createCalls.Add(1)
	f.mu.Lock()
	f.deposits = append(f.deposits, deposit)
	f.mu.Unlock()
	if f.submitErr != nil {
		return ledger.TxHandle{}, f.submitErr
	}
	return ledger.TxHandle{Hash: txHash, Kind: ledger.TxCreate, SubmittedAt: time.Now()}, nil
}

func (f *fakeLedger) ClaimPacket(ctx context.Context, packetID *big.Int) (ledger.TxHandle, error) {
	f.claimCalls.Add(1)
	if f.submitErr != nil {
		return ledger.TxHandle{}, f.submitErr
	}
	return ledger.TxHandle{Hash: txHash, Kind: ledger.TxClaim, PacketID: packetID.String(), SubmittedAt: time.Now()}, nil
}

func (f *fakeLedger) WatchTransaction(ctx context.Context, h ledger.TxHandle) <-chan ledger.TxEvent {
	final := f.final
	if final == "" {
		final = ledger.TxConfirmed
	}
	ch := make(chan ledger.TxEvent, 2)
	ch <- ledger.TxEvent{Handle: h, Status: ledger.TxPending}
	ev := ledger.TxEvent{Handle: h, Status: final, BlockNumber: 42}
	if final == ledger.TxFailed {
		ev.Err = ledger.ErrReverted
	}
	ch <- ev
	close(ch)
	return ch
}

func newTestService(t *testing.T, src *fakeSource, l *fakeLedger) *RedPacketService {
	t.Helper()
	s, err := NewRedPacketService(src, l, events.New(), Options{Decimals: 18, ClaimsPageSize: 100})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func hasNotification(s *RedPacketService, level notify.Level, msg string) bool {
	for _, n := range s.Notifications() {
		if n.Level == level && n.Message == msg {
			return true
		}
	}
	return false
}

func TestLoadPackets(t *testing.T) {
	src := &fakeSource{list: func(int32) ([]models.Packet, error) {
		return []models.Packet{packet("2", 5, 5), packet("1", 5, 1)}, nil
	}}
	s := newTestService(t, src, &fakeLedger{})

	require.NoError(t, s.LoadPackets(context.Background()))

	snap := s.Snapshot()
	assert.True(t, snap.Loaded)
	assert.False(t, snap.Loading)
	assert.Len(t, snap.Packets, 2)

	claimable := s.ClaimablePackets()
	require.Len(t, claimable, 1)
	assert.Equal(t, "1", claimable[0].ID)
}

func TestLoadPackets_FailureNotifies(t *testing.T) {
	src := &fakeSource{list: func(int32) ([]models.Packet, error) {
		return nil, &errs.QueryError{Source: "indexer", Op: "list-packets", Err: errors.New("boom")}
	}}
	s := newTestService(t, src, &fakeLedger{})

	err := s.LoadPackets(context.Background())
	assert.True(t, errs.IsQuery(err))
	assert.Empty(t, s.Packets())
	assert.False(t, s.Snapshot().Loaded)
	assert.True(t, hasNotification(s, notify.LevelError, "加载红包失败"))
}

func TestRefreshPackets_FailureKeepsLastKnown(t *testing.T) {
	src := &fakeSource{list: func(call int32) ([]models.Packet, error) {
		if call == 1 {
			return []models.Packet{packet("1", 3, 0)}, nil
		}
		return nil, errors.New("network down")
	}}
	s := newTestService(t, src, &fakeLedger{})

	require.NoError(t, s.LoadPackets(context.Background()))
	assert.Error(t, s.RefreshPackets(context.Background()))

	packets := s.Packets()
	require.Len(t, packets, 1)
	assert.Equal(t, "1", packets[0].ID)
	assert.False(t, s.Snapshot().Refreshing)
}

func TestFetchPackets_StaleResponseDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{list: func(call int32) ([]models.Packet, error) {
		if call == 1 {
			close(started)
			<-release
			return []models.Packet{packet("old", 1, 0)}, nil
		}
		return []models.Packet{packet("new", 1, 0)}, nil
	}}
	s := newTestService(t, src, &fakeLedger{})

	done := make(chan error, 1)
	go func() { done <- s.LoadPackets(context.Background()) }()
	<-started

	require.NoError(t, s.RefreshPackets(context.Background()))
	close(release)
	require.NoError(t, <-done)

	packets := s.Packets()
	require.Len(t, packets, 1)
	assert.Equal(t, "new", packets[0].ID)
	assert.Equal(t, uint64(2), s.Snapshot().Token)
}

func TestFetchPackets_DroppedAfterClose(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{list: func(int32) ([]models.Packet, error) {
		close(started)
		<-release
		return []models.Packet{packet("1", 1, 0)}, nil
	}}
	s, err := NewRedPacketService(src, &fakeLedger{}, events.New(), Options{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.LoadPackets(context.Background()) }()
	<-started

	s.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, s.Packets())
	assert.ErrorIs(t, s.RefreshPackets(context.Background()), ErrClosed)
}

func TestTogglePacket_Accordion(t *testing.T) {
	src := &fakeSource{}
	s := newTestService(t, src, &fakeLedger{})
	ctx := context.Background()

	expanded, err := s.TogglePacket(ctx, "1")
	require.NoError(t, err)
	assert.True(t, expanded)
	assert.Equal(t, "1", s.Expanded())

	expanded, err = s.TogglePacket(ctx, "2")
	require.NoError(t, err)
	assert.True(t, expanded)
	assert.Equal(t, "2", s.Expanded())

	expanded, err = s.TogglePacket(ctx, "2")
	require.NoError(t, err)
	assert.False(t, expanded)
	assert.Empty(t, s.Expanded())

	// 重新展开命中缓存
	_, err = s.TogglePacket(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.claimsCalls.Load())

	claims, ok := s.ClaimHistory("1")
	require.True(t, ok)
	assert.Equal(t, "c-1", claims[0].ID)
}

func TestLoadClaimHistory_ConcurrentSingleFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	src := &fakeSource{claims: func(id string) ([]models.Claim, error) {
		once.Do(func() { close(started) })
		<-release
		return []models.Claim{{ID: "c", PacketID: id}}, nil
	}}
	s := newTestService(t, src, &fakeLedger{})

	var wg sync.WaitGroup
	results := make([][]models.Claim, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claims, err := s.LoadClaimHistory(context.Background(), "7")
			assert.NoError(t, err)
			results[i] = claims
		}(i)
		if i == 0 {
			<-started
			assert.Equal(t, []string{"7"}, s.Snapshot().HistoryLoading)
		}
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), src.claimsCalls.Load())
	for _, claims := range results {
		assert.Len(t, claims, 1)
	}
	assert.Empty(t, s.Snapshot().HistoryLoading)
}

func TestLoadClaimHistory_FailureNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	src := &fakeSource{claims: func(id string) ([]models.Claim, error) {
		if fail.Load() {
			return nil, errors.New("timeout")
		}
		return []models.Claim{{ID: "c", PacketID: id}}, nil
	}}
	s := newTestService(t, src, &fakeLedger{})

	_, err := s.LoadClaimHistory(context.Background(), "3")
	assert.Error(t, err)
	assert.True(t, hasNotification(s, notify.LevelError, "加载领取记录失败"))

	fail.Store(false)
	claims, err := s.LoadClaimHistory(context.Background(), "3")
	require.NoError(t, err)
	assert.Len(t, claims, 1)
	assert.Equal(t, int32(2), src.claimsCalls.Load())
}

func TestCheckEligibility(t *testing.T) {
	src := &fakeSource{list: func(int32) ([]models.Packet, error) {
		return []models.Packet{packet("2", 5, 5), packet("1", 5, 1)}, nil
	}}
	l := &fakeLedger{address: viewerAddr}
	s := newTestService(t, src, l)
	ctx := context.Background()
	require.NoError(t, s.LoadPackets(ctx))

	el, err := s.CheckEligibility(ctx, "1", "")
	require.NoError(t, err)
	assert.False(t, el.Checked)
	assert.False(t, el.Eligible)
	assert.Equal(t, int32(0), l.hasCalls.Load())

	el, err = s.CheckEligibility(ctx, "1", viewerAddr)
	require.NoError(t, err)
	assert.True(t, el.Checked)
	assert.True(t, el.Eligible)

	el, err = s.CheckEligibility(ctx, "2", viewerAddr)
	require.NoError(t, err)
	assert.True(t, el.Exhausted)
	assert.False(t, el.Eligible)

	l.claimed = true
	el, err = s.CheckEligibility(ctx, "1", viewerAddr)
	require.NoError(t, err)
	assert.True(t, el.HasClaimed)
	assert.False(t, el.Eligible)
	assert.Equal(t, int32(3), l.hasCalls.Load())

	_, err = s.CheckEligibility(ctx, "9", viewerAddr)
	assert.ErrorIs(t, err, ErrPacketNotFound)

	_, err = s.CheckEligibility(ctx, "1", "not-an-address")
	assert.True(t, errs.IsValidation(err))
}

func TestSubmitClaim_Refusals(t *testing.T) {
	src := &fakeSource{list: func(int32) ([]models.Packet, error) {
		return []models.Packet{packet("2", 5, 5), packet("1", 5, 1)}, nil
	}}
	ctx := context.Background()

	t.Run("未连接钱包", func(t *testing.T) {
		s := newTestService(t, src, &fakeLedger{})
		require.NoError(t, s.LoadPackets(ctx))
		_, err := s.SubmitClaim(ctx, "1")
		assert.ErrorIs(t, err, ErrWalletNotConnected)
		assert.True(t, hasNotification(s, notify.LevelWarning, "请先连接钱包"))
	})

	t.Run("已抢光", func(t *testing.T) {
		l := &fakeLedger{address: viewerAddr}
		s := newTestService(t, src, l)
		require.NoError(t, s.LoadPackets(ctx))
		_, err := s.SubmitClaim(ctx, "2")
		assert.ErrorIs(t, err, ErrPacketExhausted)
		assert.Equal(t, int32(0), l.claimCalls.Load())
	})

	t.Run("已领取", func(t *testing.T) {
		l := &fakeLedger{address: viewerAddr, claimed: true}
		s := newTestService(t, src, l)
		require.NoError(t, s.LoadPackets(ctx))
		_, err := s.SubmitClaim(ctx, "1")
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
		assert.Equal(t, int32(0), l.claimCalls.Load())
	})

	t.Run("提交失败", func(t *testing.T) {
		l := &fakeLedger{address: viewerAddr, submitErr: &errs.SubmissionError{Op: "claimRedPacket", Err: errors.New("rejected")}}
		s := newTestService(t, src, l)
		require.NoError(t, s.LoadPackets(ctx))
		_, err := s.SubmitClaim(ctx, "1")
		assert.True(t, errs.IsSubmission(err))
		assert.True(t, hasNotification(s, notify.LevelError, "领取失败"))
	})
}

func TestSubmitClaim_ConfirmedRefreshesAndInvalidatesHistory(t *testing.T) {
	src := &fakeSource{list: func(call int32) ([]models.Packet, error) {
		if call == 1 {
			return []models.Packet{packet("1", 2, 1)}, nil
		}
		return []models.Packet{packet("1", 2, 2)}, nil
	}}
	l := &fakeLedger{address: viewerAddr}
	s := newTestService(t, src, l)
	ctx := context.Background()

	require.NoError(t, s.LoadPackets(ctx))
	_, err := s.TogglePacket(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, int32(1), src.claimsCalls.Load())

	h, err := s.SubmitClaim(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, txHash, h.Hash)

	assert.Eventually(t, func() bool {
		_, cached := s.ClaimHistory("1")
		return cached && src.listCalls.Load() == 2 && src.claimsCalls.Load() == 2
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return hasNotification(s, notify.LevelSuccess, "🎉 恭喜发财，红包领取成功！")
	}, time.Second, 10*time.Millisecond)

	assert.Empty(t, s.ClaimablePackets())
}

func TestSubmitClaim_ConfirmedCollapsedPacketOnlyEvicts(t *testing.T) {
	src := &fakeSource{list: func(int32) ([]models.Packet, error) {
		return []models.Packet{packet("1", 3, 1)}, nil
	}}
	s := newTestService(t, src, &fakeLedger{address: viewerAddr})
	ctx := context.Background()

	require.NoError(t, s.LoadPackets(ctx))
	_, err := s.LoadClaimHistory(ctx, "1")
	require.NoError(t, err)

	_, err = s.SubmitClaim(ctx, "1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, cached := s.ClaimHistory("1")
		return !cached && src.listCalls.Load() == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), src.claimsCalls.Load())
}

func TestSubmitClaim_FailedNotifies(t *testing.T) {
	src := &fakeSource{list: func(int32) ([]models.Packet, error) {
		return []models.Packet{packet("1", 3, 1)}, nil
	}}
	s := newTestService(t, src, &fakeLedger{address: viewerAddr, final: ledger.TxFailed})
	ctx := context.Background()
	require.NoError(t, s.LoadPackets(ctx))

	_, err := s.SubmitClaim(ctx, "1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return hasNotification(s, notify.LevelError, "领取失败")
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), src.listCalls.Load())
}

func TestSubmitCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("校验失败不发起调用", func(t *testing.T) {
		l := &fakeLedger{address: viewerAddr}
		s := newTestService(t, &fakeSource{}, l)
		_, err := s.SubmitCreate(ctx, "abc", "3")
		var v *errs.ValidationError
		require.ErrorAs(t, err, &v)
		assert.Equal(t, "amount", v.Field)
		assert.Equal(t, int32(0), l.createCalls.Load())
		assert.Empty(t, s.Notifications())
	})

	t.Run("成功后刷新", func(t *testing.T) {
		src := &fakeSource{}
		l := &fakeLedger{address: viewerAddr}
		s := newTestService(t, src, l)

		h, err := s.SubmitCreate(ctx, "0.5", "10")
		require.NoError(t, err)
		assert.Equal(t, ledger.TxCreate, h.Kind)
		require.Len(t, l.deposits, 1)
		assert.Equal(t, "500000000000000000", l.deposits[0].String())

		assert.Eventually(t, func() bool {
			return hasNotification(s, notify.LevelSuccess, "🎊 红包创建成功！交易哈希: 0x11111111...")
		}, time.Second, 10*time.Millisecond)
		assert.Eventually(t, func() bool { return src.listCalls.Load() == 1 }, time.Second, 10*time.Millisecond)
	})
}

func TestLoadCreatorPackets(t *testing.T) {
	src := &fakeSource{byCreator: []models.Packet{packet("4", 2, 0)}}
	s := newTestService(t, src, &fakeLedger{})

	_, err := s.LoadCreatorPackets(context.Background(), "0x123")
	assert.True(t, errs.IsValidation(err))

	packets, err := s.LoadCreatorPackets(context.Background(), creatorAddr)
	require.NoError(t, err)
	assert.Len(t, packets, 1)
	assert.Empty(t, s.Packets())
}
