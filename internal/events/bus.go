// Package events 交易生命周期事件总线
package events

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"github.com/smysle/redpacket-go/internal/ledger"
	"github.com/smysle/redpacket-go/pkg/logger"
)

// 事件主题
const (
	TopicTxPending   = "tx:pending"
	TopicTxConfirmed = "tx:confirmed"
	TopicTxFailed    = "tx:failed"
)

// TxHandler 交易事件处理器
type TxHandler func(ev ledger.TxEvent)

// Bus 基于 asaskevich/EventBus 的事件总线。订阅者同步执行，发布方阻塞到处理完成。
// EventBus 按函数指针取消订阅，同一个闭包字面量产生的处理器无法区分，
// 所以每个主题只向 EventBus 注册一个分发器，订阅者按 ID 管理。
type Bus struct {
	bus evbus.Bus

	subMu       sync.Mutex // 串行化订阅与取消订阅
	mu          sync.RWMutex
	subs        map[string][]subscriber
	dispatchers map[string]func(ledger.TxEvent)
	nextID      uint64
}

type subscriber struct {
	id uint64
	fn TxHandler
}

// New 创建事件总线
func New() *Bus {
	return &Bus{
		bus:         evbus.New(),
		subs:        make(map[string][]subscriber),
		dispatchers: make(map[string]func(ledger.TxEvent)),
	}
}

// TopicFor 交易状态对应的主题
func TopicFor(status ledger.TxStatus) string {
	switch status {
	case ledger.TxConfirmed:
		return TopicTxConfirmed
	case ledger.TxFailed:
		return TopicTxFailed
	default:
		return TopicTxPending
	}
}

// PublishTx 发布交易事件
func (b *Bus) PublishTx(ev ledger.TxEvent) {
	topic := TopicFor(ev.Status)
	event := logger.Debug()
	if ev.Status.Terminal() {
		event = logger.Info()
	}
	event.
		Str("topic", topic).
		Str("tx", ev.Handle.Hash).
		Str("kind", string(ev.Handle.Kind)).
		Msg("发布交易事件")
	b.bus.Publish(topic, ev)
}

// SubscribeTx 订阅某个主题，返回取消订阅函数
func (b *Bus) SubscribeTx(topic string, fn TxHandler) (func(), error) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	if _, ok := b.dispatchers[topic]; !ok {
		dispatch := func(ev ledger.TxEvent) { b.dispatch(topic, ev) }
		if err := b.bus.Subscribe(topic, dispatch); err != nil {
			return nil, err
		}
		b.dispatchers[topic] = dispatch
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscriber{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}, nil
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	b.mu.Lock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	empty := len(b.subs[topic]) == 0
	if empty {
		delete(b.subs, topic)
	}
	b.mu.Unlock()

	if dispatch, ok := b.dispatchers[topic]; ok && empty {
		_ = b.bus.Unsubscribe(topic, dispatch)
		delete(b.dispatchers, topic)
	}
}

// dispatch 按订阅顺序调用处理器
func (b *Bus) dispatch(topic string, ev ledger.TxEvent) {
	b.mu.RLock()
	subs := append([]subscriber(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// HasSubscribers 主题是否有订阅者
func (b *Bus) HasSubscribers(topic string) bool {
	return b.bus.HasCallback(topic)
}
