package sim

import (
	"context"
	"log"
	"time"
)

// DefaultTickRate 默认每秒更新次数，与 ebiten 默认 TPS 一致
const DefaultTickRate = 60

// Runner 以固定帧率驱动 World
type Runner struct {
	world    *World
	tickRate int

	// OnTick 每帧更新后调用（在 Run 所在 goroutine），可为 nil
	OnTick func(w *World)
}

// NewRunner 创建驱动器
// tickRate <= 0 时使用 DefaultTickRate
func NewRunner(world *World, tickRate int) *Runner {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &Runner{world: world, tickRate: tickRate}
}

// DeltaTime 每帧的时间步长（秒）
func (r *Runner) DeltaTime() float64 {
	return 1.0 / float64(r.tickRate)
}

// Run 按实时帧率推进世界，直到 ctx 取消
//
// 返回：
//   - error: ctx.Err()
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(r.tickRate))
	defer ticker.Stop()

	log.Printf("[Runner] Running at %d TPS", r.tickRate)

	dt := r.DeltaTime()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Runner] Stopped after %.1fs simulated", r.world.elapsed)
			return ctx.Err()
		case <-ticker.C:
			r.step(dt)
		}
	}
}

// RunFor 不等待实时时钟，快进 seconds 秒的模拟时间
//
// 返回：
//   - int: 执行的帧数
func (r *Runner) RunFor(seconds float64) int {
	dt := r.DeltaTime()
	ticks := int(seconds*float64(r.tickRate) + timerEpsilon)
	for i := 0; i < ticks; i++ {
		r.step(dt)
	}
	return ticks
}

func (r *Runner) step(dt float64) {
	r.world.Update(dt)
	if r.OnTick != nil {
		r.OnTick(r.world)
	}
}
