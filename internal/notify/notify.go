// Package notify 用户可见的通知（成功、警告、错误提示）
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smysle/redpacket-go/pkg/logger"
)

// Level 通知级别
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification 一条通知
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// New 创建通知
func New(level Level, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Notifier 通知出口
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Multi 依次投递到多个出口
type Multi []Notifier

// Notify 实现 Notifier
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

// Log 写入日志
type Log struct{}

// Notify 实现 Notifier
func (Log) Notify(_ context.Context, n Notification) {
	var event = logger.Info()
	switch n.Level {
	case LevelWarning:
		event = logger.Warn()
	case LevelError:
		event = logger.Error()
	}
	event.Str("id", n.ID).Str("level", string(n.Level)).Msg(n.Message)
}

// Recorder 保留最近的通知，供 API 轮询
type Recorder struct {
	mu    sync.RWMutex
	items []Notification
	limit int
}

// NewRecorder 创建通知记录器
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 50
	}
	return &Recorder{limit: limit}
}

// Notify 实现 Notifier
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, n)
	if over := len(r.items) - r.limit; over > 0 {
		r.items = append(r.items[:0:0], r.items[over:]...)
	}
}

// Recent 最近的通知，最新的在前
func (r *Recorder) Recent() []Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Notification, 0, len(r.items))
	for i := len(r.items) - 1; i >= 0; i-- {
		out = append(out, r.items[i])
	}
	return out
}
