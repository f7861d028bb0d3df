package main

import (
	"context"
	"time"

	"github.com/smysle/redpacket-go/internal/config"
	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/events"
	"github.com/smysle/redpacket-go/internal/indexer"
	"github.com/smysle/redpacket-go/internal/ledger"
	"github.com/smysle/redpacket-go/internal/notify"
	"github.com/smysle/redpacket-go/internal/scheduler"
	"github.com/smysle/redpacket-go/internal/service"
	"github.com/smysle/redpacket-go/pkg/logger"
	"github.com/smysle/redpacket-go/pkg/utils"
)

// app 组装好的运行时组件
type app struct {
	sched   *scheduler.Scheduler
	ledger  *ledger.Client
	indexer *indexer.Client
	bus     *events.Bus
	svc     *service.RedPacketService
}

// newApp 按依赖顺序创建组件；autoRefresh 为 true 时注册定时刷新
func newApp(ctx context.Context, cfg *config.Config, notifier notify.Notifier, autoRefresh bool) (*app, error) {
	sched := scheduler.New(cfg.Scheduler)

	l, err := ledger.Dial(ctx, cfg.Chain.RPCURL, ledger.Options{
		Contract:     cfg.Chain.Contract,
		ChainID:      cfg.Chain.ChainID,
		PrivateKey:   cfg.Chain.PrivateKey,
		PollInterval: time.Duration(cfg.Chain.ConfirmPollSeconds) * time.Second,
	}, sched.Cron())
	if err != nil {
		return nil, err
	}

	idx := indexer.NewClient(indexer.Options{
		URL:            cfg.Indexer.URL,
		Timeout:        time.Duration(cfg.Indexer.TimeoutSeconds) * time.Second,
		PageSize:       cfg.Indexer.PageSize,
		ClaimsPageSize: cfg.Indexer.ClaimsPageSize,
	})

	bus := events.New()

	svc, err := service.NewRedPacketService(idx, l, bus, service.Options{
		Decimals:       cfg.Chain.Decimals,
		ClaimsPageSize: cfg.Indexer.ClaimsPageSize,
		Notifier:       notifier,
	})
	if err != nil {
		l.Close()
		idx.Close()
		return nil, err
	}

	if autoRefresh {
		sched.SetRefresher(svc)
	}
	if err := sched.Start(); err != nil {
		svc.Close()
		l.Close()
		idx.Close()
		return nil, err
	}

	return &app{
		sched:   sched,
		ledger:  l,
		indexer: idx,
		bus:     bus,
		svc:     svc,
	}, nil
}

// Close 先停服务（等待交易跟踪结束），再停调度器和连接
func (a *app) Close() {
	a.svc.Close()
	a.sched.Stop()
	a.ledger.Close()
	a.indexer.Close()
	logger.Debug().Msg("组件已关闭")
}

// viewOptions 展示参数
func viewOptions(cfg *config.Config) derive.ViewOptions {
	return derive.ViewOptions{
		Decimals:    cfg.Chain.Decimals,
		Symbol:      cfg.Chain.Symbol,
		ExplorerURL: cfg.Chain.ExplorerURL,
		Location:    utils.LoadLocation(cfg.Scheduler.Timezone),
	}
}
