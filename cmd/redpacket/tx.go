package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/events"
	"github.com/smysle/redpacket-go/internal/ledger"
)

var (
	txWait    bool          // 等待确认
	txTimeout time.Duration // 等待超时
)

// claimCmd 领取红包
var claimCmd = &cobra.Command{
	Use:   "claim <id>",
	Short: "使用配置的私钥领取红包",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitTx(func(ctx context.Context, a *app) (ledger.TxHandle, error) {
			if err := a.svc.LoadPackets(ctx); err != nil {
				return ledger.TxHandle{}, err
			}
			return a.svc.SubmitClaim(ctx, args[0])
		})
	},
}

// createCmd 发红包
var createCmd = &cobra.Command{
	Use:   "create <amount> <count>",
	Short: "使用配置的私钥发红包",
	Long:  "发红包，金额以代币为单位，例如 create 0.1 10 表示 0.1 分成 10 份",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitTx(func(ctx context.Context, a *app) (ledger.TxHandle, error) {
			return a.svc.SubmitCreate(ctx, args[0], args[1])
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{claimCmd, createCmd} {
		c.Flags().BoolVar(&txWait, "wait", true, "等待交易确认")
		c.Flags().DurationVar(&txTimeout, "timeout", 3*time.Minute, "等待确认的超时时间")
	}
}

// submitTx 提交交易，按需等待最终状态
func submitTx(submit func(ctx context.Context, a *app) (ledger.TxHandle, error)) error {
	ctx := context.Background()
	a, err := newApp(ctx, cfg, nil, false)
	if err != nil {
		return err
	}
	defer a.Close()

	// 先订阅，避免错过很快确认的交易
	final := make(chan ledger.TxEvent, 8)
	for _, topic := range []string{events.TopicTxConfirmed, events.TopicTxFailed} {
		unsub, err := a.bus.SubscribeTx(topic, func(ev ledger.TxEvent) {
			select {
			case final <- ev:
			default:
			}
		})
		if err != nil {
			return err
		}
		defer unsub()
	}

	h, err := submit(ctx, a)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("交易已提交: %s", h.Hash)
	if url := derive.TxURL(cfg.Chain.ExplorerURL, h.Hash); url != "" {
		pterm.Info.Println(url)
	}
	if !txWait {
		return nil
	}

	spinner, _ := pterm.DefaultSpinner.Start("等待交易确认...")
	timeout := time.After(txTimeout)
	for {
		select {
		case ev := <-final:
			if ev.Handle.Hash != h.Hash {
				continue
			}
			if ev.Status == ledger.TxConfirmed {
				spinner.Success(fmt.Sprintf("交易已确认，区块 %d", ev.BlockNumber))
				return nil
			}
			spinner.Fail("交易失败")
			if ev.Err != nil {
				return ev.Err
			}
			return errors.New("交易失败")
		case <-timeout:
			spinner.Warning("等待超时，交易可能仍在处理中")
			return nil
		}
	}
}
