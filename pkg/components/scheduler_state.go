package components

// SchedulerState 调度器状态
type SchedulerState int

const (
	// SchedulerIdle 空闲：等待倒计时结束
	SchedulerIdle SchedulerState = iota
	// SchedulerWaveSpawning 按间隔周期性生成波次
	SchedulerWaveSpawning
	// SchedulerBossPending 已到达首领距离，等待场上敌人清空
	SchedulerBossPending
	// SchedulerBossActive 首领已选定（警告中或已出场）
	SchedulerBossActive
	// SchedulerPostBossRecovery 首领被击败后的恢复等待
	SchedulerPostBossRecovery
)

// String 返回状态名称（用于日志）
func (s SchedulerState) String() string {
	switch s {
	case SchedulerIdle:
		return "Idle"
	case SchedulerWaveSpawning:
		return "WaveSpawning"
	case SchedulerBossPending:
		return "BossPending"
	case SchedulerBossActive:
		return "BossActive"
	case SchedulerPostBossRecovery:
		return "PostBossRecovery"
	default:
		return "Unknown"
	}
}

// PendingWaveRequest 单次波次的生成请求
// 生成点 ID -> 本次请求的敌人数，每个 tick 重新构建，派发后丢弃
type PendingWaveRequest map[string]int
