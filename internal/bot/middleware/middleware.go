// Package middleware Bot 中间件
package middleware

import (
	"runtime/debug"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/redpacket-go/pkg/logger"
)

// Logger 日志中间件
func Logger() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user != nil {
				logger.Debug().
					Int64("user_id", user.ID).
					Str("username", user.Username).
					Str("text", c.Text()).
					Msg("收到消息")
			}
			return next(c)
		}
	}
}

// Recover 恢复中间件
func Recover() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().
						Interface("panic", r).
						Str("stack", string(debug.Stack())).
						Msg("处理器 panic")

					_ = c.Send("❌ 处理请求时发生错误，请稍后重试")
				}
			}()
			return next(c)
		}
	}
}

// AdminOnly 管理员权限中间件
func AdminOnly(isAdmin func(int64) bool) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return c.Send("❌ 无法获取用户信息")
			}

			if !isAdmin(user.ID) {
				return c.Send("❌ 您没有权限执行此操作")
			}

			return next(c)
		}
	}
}

// rateLimitEntry 速率限制条目
type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// rateLimiter 速率限制器
type rateLimiter struct {
	mu        sync.Mutex
	entries   map[int64]*rateLimitEntry
	limit     int
	window    time.Duration
	lastClean time.Time
}

// newRateLimiter 创建速率限制器
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	return &rateLimiter{
		entries:   make(map[int64]*rateLimitEntry),
		limit:     requestsPerMinute,
		window:    time.Minute,
		lastClean: time.Now(),
	}
}

// allow 检查是否允许请求
func (rl *rateLimiter) allow(userID int64, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// 定期清理过期条目
	if now.Sub(rl.lastClean) > 5*time.Minute {
		for id, entry := range rl.entries {
			if now.After(entry.resetTime) {
				delete(rl.entries, id)
			}
		}
		rl.lastClean = now
	}

	entry, exists := rl.entries[userID]
	if !exists || now.After(entry.resetTime) {
		rl.entries[userID] = &rateLimitEntry{
			count:     1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if entry.count >= rl.limit {
		return false
	}

	entry.count++
	return true
}

// RateLimit 速率限制中间件，exempt 返回 true 的用户不受限制
func RateLimit(requestsPerMinute int, exempt func(int64) bool) tele.MiddlewareFunc {
	limiter := newRateLimiter(requestsPerMinute)

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}

			if exempt != nil && exempt(user.ID) {
				return next(c)
			}

			if !limiter.allow(user.ID, time.Now()) {
				logger.Warn().
					Int64("user_id", user.ID).
					Int("limit", requestsPerMinute).
					Msg("用户触发速率限制")

				return c.Send("⏳ 操作太频繁，请稍后再试")
			}

			return next(c)
		}
	}
}
