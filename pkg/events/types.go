package events

// SignalType 信号类型
type SignalType string

// 调度器订阅的信号
const (
	MissionRestart       SignalType = "mission-restart"        // 任务重新开始
	CountdownFinished    SignalType = "countdown-finished"     // 开场倒计时结束
	PlayerDied           SignalType = "player-died"            // 玩家死亡
	BossDistanceReached  SignalType = "boss-distance-reached"  // 到达首领距离
	EnemyPopulationEmpty SignalType = "enemy-population-empty" // 场上敌人清空
	BossDied             SignalType = "boss-died"              // 首领死亡
)

// 调度器发布的信号
const (
	WaveStarting SignalType = "wave-starting" // 新一波开始
	BossSelected SignalType = "boss-selected" // 首领已选定
)

// Event 事件
type Event struct {
	Type    SignalType
	Payload any
}

// BossDiedPayload boss-died 信号负载
type BossDiedPayload struct {
	BossID string  // 死亡的首领
	Value  float64 // 首领奖励值
}

// BossSelectedPayload boss-selected 信号负载
type BossSelectedPayload struct {
	BossID string
}

// WaveStartingPayload wave-starting 信号负载
type WaveStartingPayload struct {
	Wave    int // 本次任务内的波次序号（从 1 开始）
	Enemies int // 本波敌人数
}
