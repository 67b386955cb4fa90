package systems

import "math"

// SchedulerTimer 可取消的倒计时句柄
//
// 由所属系统在 Update 中推进；Cancel 立即生效，
// 被取消的计时器不会再触发。对未运行的计时器调用 Cancel 为空操作。
type SchedulerTimer struct {
	name      string
	remaining float64
	active    bool
	overshoot float64 // 上次到期时超出的秒数
}

// NewSchedulerTimer 创建未启动的计时器
func NewSchedulerTimer(name string) *SchedulerTimer {
	return &SchedulerTimer{name: name}
}

// Start 以 duration 秒启动（或重新启动）计时器
func (t *SchedulerTimer) Start(duration float64) {
	if duration < 0 {
		duration = 0
	}
	t.remaining = duration
	t.active = true
	t.overshoot = 0
}

// Cancel 停止计时器并丢弃剩余时间
func (t *SchedulerTimer) Cancel() {
	t.active = false
	t.remaining = 0
	t.overshoot = 0
}

// Active 计时器是否在运行
func (t *SchedulerTimer) Active() bool {
	return t.active
}

// Remaining 剩余秒数，未运行时为 0
func (t *SchedulerTimer) Remaining() float64 {
	return t.remaining
}

// Name 计时器名称（用于日志）
func (t *SchedulerTimer) Name() string {
	return t.name
}

// Update 推进 deltaTime 秒
//
// 返回本次是否到期。到期后计时器自动停止，周期性计时需由调用方重新 Start，
// 并从新周期中扣除 Overshoot，否则每个周期都会晚最多一帧。
func (t *SchedulerTimer) Update(deltaTime float64) bool {
	if !t.active {
		return false
	}

	t.remaining -= deltaTime
	if t.remaining > 1e-9 {
		return false
	}

	t.overshoot = math.Max(0, -t.remaining)
	t.active = false
	t.remaining = 0
	return true
}

// Overshoot 上次到期时越过期限的秒数
// Start 与 Cancel 会将其清零
func (t *SchedulerTimer) Overshoot() float64 {
	return t.overshoot
}
