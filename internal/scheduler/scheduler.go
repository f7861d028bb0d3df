// Package scheduler 定时任务调度：自动刷新红包列表，并承载交易确认轮询任务
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/smysle/redpacket-go/internal/config"
	"github.com/smysle/redpacket-go/pkg/logger"
	"github.com/smysle/redpacket-go/pkg/utils"
)

// TagAutoRefresh 自动刷新任务的标签
const TagAutoRefresh = "auto_refresh"

// Refresher 列表刷新，*service.RedPacketService 满足该接口
type Refresher interface {
	RefreshPackets(ctx context.Context) error
}

// Scheduler 定时任务调度器
type Scheduler struct {
	cron      *gocron.Scheduler
	cfg       config.SchedulerConfig
	refresher Refresher
}

// New 创建调度器
func New(cfg config.SchedulerConfig) *Scheduler {
	s := gocron.NewScheduler(utils.LoadLocation(cfg.Timezone))
	s.SetMaxConcurrentJobs(10, gocron.WaitMode)

	return &Scheduler{
		cron: s,
		cfg:  cfg,
	}
}

// Cron 底层调度器，交易确认跟踪器共用
func (s *Scheduler) Cron() *gocron.Scheduler {
	return s.cron
}

// SetRefresher 设置自动刷新的目标
func (s *Scheduler) SetRefresher(r Refresher) {
	s.refresher = r
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	logger.Info().Msg("启动定时任务调度器")

	if err := s.registerJobs(); err != nil {
		return err
	}

	s.cron.StartAsync()
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	logger.Info().Msg("停止定时任务调度器")
	s.cron.Stop()
}

// registerJobs 注册所有定时任务
func (s *Scheduler) registerJobs() error {
	if s.cfg.AutoRefreshSeconds <= 0 || s.refresher == nil {
		return nil
	}

	interval := time.Duration(s.cfg.AutoRefreshSeconds) * time.Second
	_, err := s.cron.Every(interval).
		Tag(TagAutoRefresh).
		SingletonMode().
		WaitForSchedule().
		Do(s.autoRefresh)
	if err != nil {
		return fmt.Errorf("注册自动刷新任务失败: %w", err)
	}
	logger.Info().Dur("interval", interval).Msg("已注册: 自动刷新任务")
	return nil
}

// autoRefresh 自动刷新红包列表
func (s *Scheduler) autoRefresh() {
	logger.Debug().Msg("执行定时任务: 自动刷新")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.refresher.RefreshPackets(ctx); err != nil {
		logger.Warn().Err(err).Msg("自动刷新失败")
	}
}
