package components

// EnemyComponent 普通敌人
// 从生成点出发沿航道前进，到达航道终点时撞击玩家
type EnemyComponent struct {
	// SpawnPointID 来源生成点
	SpawnPointID string

	// Speed 前进速度（距离单位/秒），已包含生成点速度加成
	Speed float64

	// Progress 已前进的距离
	Progress float64

	// WaveNumber 所属波次（从 1 开始）
	WaveNumber int
}

// BossComponent 首领
type BossComponent struct {
	BossID string

	// Value 击败奖励，随 boss-died 信号发出
	Value float64
}
