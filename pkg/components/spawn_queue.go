package components

// SpawnQueueComponent 生成点待生成队列
// 生成点收到 BeginSpawning 后累加 Pending，按 Stagger 间隔逐个释放
type SpawnQueueComponent struct {
	// SpawnPointID 生成点标识
	SpawnPointID string

	// Pending 尚未释放的敌人数
	Pending int

	// Cooldown 距离释放下一个敌人的秒数
	Cooldown float64

	// SpeedModifier 速度加成（击败首领后递增，重新开始时归零）
	SpeedModifier float64

	// Released 本次任务累计释放的敌人数
	Released int
}
