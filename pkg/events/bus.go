// Package events 提供调度器与外部协作者之间的发布/订阅边界
//
// 事件按到达顺序排队，由持有游戏循环的一方调用 Flush 逐个派发。
// 派发过程中发布的新事件追加到队尾，在当前处理函数返回后才会派发，
// 因此订阅者的状态转换不会重入。
package events

import (
	"log"
	"reflect"
	"sync"
)

// Listener 事件订阅者
//
// 订阅以 Listener 值作为标识，取消订阅时必须传入同一个值。
// 实现应使用指针接收者；动态类型不可比较的值（含切片、映射的结构体值）会被拒绝订阅
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc 将具名函数适配为 Listener
//
// 函数值不可比较，必须取地址使用：
//
//	handler := events.ListenerFunc(fn)
//	bus.Subscribe(t, &handler)
//	bus.Unsubscribe(t, &handler)
type ListenerFunc func(event Event)

// OnEvent 调用函数本身
func (f *ListenerFunc) OnEvent(event Event) {
	(*f)(event)
}

// EventBus 事件总线接口
type EventBus interface {
	Subscribe(signal SignalType, listener Listener)
	Unsubscribe(signal SignalType, listener Listener)
	Publish(event Event)
	Flush() int
}

// Bus 单线程派发的事件总线
//
// Publish 可在任意 goroutine 调用；Flush 只能由游戏循环所在的 goroutine 调用
type Bus struct {
	mu        sync.Mutex
	listeners map[SignalType][]Listener
	queue     []Event
	flushing  bool
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[SignalType][]Listener),
	}
}

// Subscribe 订阅信号
// 同一 listener 重复订阅同一信号只保留一份
func (b *Bus) Subscribe(signal SignalType, listener Listener) {
	if listener == nil {
		return
	}
	if !isComparable(listener) {
		log.Printf("[EventBus] Warning: listener %T is not comparable, subscription to %s ignored", listener, signal)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, l := range b.listeners[signal] {
		if l == listener {
			return
		}
	}
	b.listeners[signal] = append(b.listeners[signal], listener)
}

// Unsubscribe 取消订阅
// 未订阅时为空操作
func (b *Bus) Unsubscribe(signal SignalType, listener Listener) {
	if listener == nil || !isComparable(listener) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	listeners := b.listeners[signal]
	for i, l := range listeners {
		if l == listener {
			// 复制而非原地删除，避免影响正在派发的快照
			next := make([]Listener, 0, len(listeners)-1)
			next = append(next, listeners[:i]...)
			next = append(next, listeners[i+1:]...)
			if len(next) == 0 {
				delete(b.listeners, signal)
			} else {
				b.listeners[signal] = next
			}
			return
		}
	}
}

// Publish 将事件追加到队尾
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	b.queue = append(b.queue, event)
	b.mu.Unlock()
}

// Flush 按到达顺序派发所有排队事件，包括派发过程中新发布的事件
//
// 返回派发的事件数。在订阅者内部调用 Flush 会被忽略。
func (b *Bus) Flush() int {
	b.mu.Lock()
	if b.flushing {
		b.mu.Unlock()
		log.Printf("[EventBus] Warning: nested Flush ignored")
		return 0
	}
	b.flushing = true
	b.mu.Unlock()

	delivered := 0
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.flushing = false
			b.mu.Unlock()
			return delivered
		}
		event := b.queue[0]
		b.queue[0] = Event{}
		b.queue = b.queue[1:]
		listeners := b.listeners[event.Type]
		b.mu.Unlock()

		for _, l := range listeners {
			l.OnEvent(event)
		}
		delivered++
	}
}

// Pending 返回尚未派发的事件数
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// ListenerCount 返回某信号的订阅者数量
func (b *Bus) ListenerCount(signal SignalType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[signal])
}

// isComparable 判断 listener 能否用 == 比较，不可比较的动态类型比较时会 panic
func isComparable(listener Listener) bool {
	return reflect.TypeOf(listener).Comparable()
}
