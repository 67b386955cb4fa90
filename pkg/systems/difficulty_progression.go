package systems

import (
	"github.com/decker502/wavebreak/pkg/components"
	"github.com/decker502/wavebreak/pkg/config"
)

// DifficultyPhase 难度阶段
type DifficultyPhase int

const (
	// PhaseIntervalShrink 间隔缩短阶段：每次击败首领缩短波次间隔
	PhaseIntervalShrink DifficultyPhase = iota
	// PhaseHeadcountGrowth 人数增长阶段：每次击败首领每波多一个敌人，并按人数重算间隔
	PhaseHeadcountGrowth
)

// String 返回阶段名称
func (p DifficultyPhase) String() string {
	if p == PhaseIntervalShrink {
		return "IntervalShrink"
	}
	return "HeadcountGrowth"
}

// DifficultyProgression 难度递进
// 只保存基础配置，所有计算都是纯函数
type DifficultyProgression struct {
	base components.WaveConfig
}

// NewDifficultyProgression 以基础波次配置创建难度递进
func NewDifficultyProgression(base components.WaveConfig) *DifficultyProgression {
	base.SpawnInterval = base.BaseInterval
	base.ReductionsApplied = 0
	return &DifficultyProgression{base: base}
}

// NewDifficultyProgressionFromConfig 从调度配置创建难度递进
func NewDifficultyProgressionFromConfig(cfg *config.SchedulerConfig) *DifficultyProgression {
	return NewDifficultyProgression(components.WaveConfig{
		EnemiesPerWave:        cfg.EnemiesPerWave,
		BaseInterval:          cfg.SpawnInterval,
		IntervalReductionStep: cfg.IntervalReductionStep,
		MaxReductions:         cfg.MaxReductions,
		OffsetPerEnemy:        cfg.OffsetPerEnemy,
	})
}

// Reset 返回基础波次配置
func (d *DifficultyProgression) Reset() components.WaveConfig {
	return d.base
}

// ApplyBossDefeat 计算击败一个首领后的波次配置
//
// 公式：
//   - ReductionsApplied < MaxReductions: SpawnInterval -= IntervalReductionStep, ReductionsApplied++
//   - 否则: EnemiesPerWave++, SpawnInterval = BaseInterval + EnemiesPerWave * OffsetPerEnemy
func (d *DifficultyProgression) ApplyBossDefeat(current components.WaveConfig) components.WaveConfig {
	next := current
	if next.ReductionsApplied < next.MaxReductions {
		next.SpawnInterval -= next.IntervalReductionStep
		next.ReductionsApplied++
		return next
	}

	next.EnemiesPerWave++
	next.SpawnInterval = next.BaseInterval + float64(next.EnemiesPerWave)*next.OffsetPerEnemy
	return next
}

// Phase 返回配置当前所处的难度阶段
func (d *DifficultyProgression) Phase(cfg components.WaveConfig) DifficultyPhase {
	if cfg.ReductionsApplied < cfg.MaxReductions {
		return PhaseIntervalShrink
	}
	return PhaseHeadcountGrowth
}
