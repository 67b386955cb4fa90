package components

// WaveConfig 波次配置组件
// 由 SpawnScheduler 独占持有，仅通过 DifficultyProgression 修改
// 注意：遵循 ECS 原则，组件仅存储数据，不包含方法
//
// 时间单位为秒
type WaveConfig struct {
	// EnemiesPerWave 每波生成的敌人数（正整数）
	EnemiesPerWave int

	// SpawnInterval 当前波次间隔（秒）
	SpawnInterval float64

	// BaseInterval 基础波次间隔（秒）
	// 人数增长阶段按 BaseInterval + EnemiesPerWave * OffsetPerEnemy 重新计算间隔
	BaseInterval float64

	// IntervalReductionStep 每次击败首领缩短的间隔（秒）
	IntervalReductionStep float64

	// MaxReductions 间隔缩短次数上限
	MaxReductions int

	// ReductionsApplied 已执行的缩短次数（0..MaxReductions）
	ReductionsApplied int

	// OffsetPerEnemy 人数增长阶段每个敌人附加的间隔（秒）
	OffsetPerEnemy float64
}
