package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/smysle/redpacket-go/internal/metrics"
	"github.com/smysle/redpacket-go/pkg/logger"
)

// ErrReverted 交易上链但执行失败
var ErrReverted = errors.New("交易执行失败 (reverted)")

const defaultPollInterval = 3 * time.Second

// ReceiptFetcher 查询交易回执
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Watcher 通过定时任务轮询回执，每笔交易一个任务，以 tag 区分
type Watcher struct {
	cron     *gocron.Scheduler
	fetcher  ReceiptFetcher
	interval time.Duration
}

// NewWatcher 创建交易确认跟踪器
func NewWatcher(cron *gocron.Scheduler, fetcher ReceiptFetcher, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Watcher{
		cron:     cron,
		fetcher:  fetcher,
		interval: interval,
	}
}

// Watch 返回的 channel 依次收到 pending 和一个最终状态，随后关闭。
// ctx 取消时以 failed 结束。
func (w *Watcher) Watch(ctx context.Context, h TxHandle) <-chan TxEvent {
	events := make(chan TxEvent, 2)
	events <- TxEvent{Handle: h, Status: TxPending}
	metrics.ObserveTxEvent(string(h.Kind), string(TxPending))

	tag := "tx:" + h.Hash + ":" + uuid.NewString()
	done := make(chan struct{})
	var once sync.Once
	finish := func(ev TxEvent) {
		once.Do(func() {
			metrics.ObserveTxEvent(string(h.Kind), string(ev.Status))
			events <- ev
			close(events)
			close(done)
			_ = w.cron.RemoveByTag(tag)
		})
	}

	hash := common.HexToHash(h.Hash)
	_, err := w.cron.Every(w.interval).Tag(tag).SingletonMode().Do(func() {
		if err := ctx.Err(); err != nil {
			finish(TxEvent{Handle: h, Status: TxFailed, Err: err})
			return
		}

		receipt, err := w.fetcher.TransactionReceipt(ctx, hash)
		switch {
		case errors.Is(err, ethereum.NotFound):
			return
		case err != nil:
			logger.Warn().Err(err).Str("tx", h.Hash).Msg("查询交易回执失败，稍后重试")
			return
		}

		if receipt.Status == types.ReceiptStatusSuccessful {
			finish(TxEvent{Handle: h, Status: TxConfirmed, BlockNumber: blockNumber(receipt)})
			return
		}
		finish(TxEvent{Handle: h, Status: TxFailed, BlockNumber: blockNumber(receipt), Err: ErrReverted})
	})
	if err != nil {
		finish(TxEvent{Handle: h, Status: TxFailed, Err: fmt.Errorf("注册确认任务失败: %w", err)})
	}

	// 调度器停止后任务不再执行，ctx 取消需要单独感知
	go func() {
		select {
		case <-ctx.Done():
			finish(TxEvent{Handle: h, Status: TxFailed, Err: ctx.Err()})
		case <-done:
		}
	}()

	return events
}

func blockNumber(r *types.Receipt) uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}
