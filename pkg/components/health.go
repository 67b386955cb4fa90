package components

// HealthComponent 存储实体的生命值信息
// 用于敌人、首领等可被攻击的实体
type HealthComponent struct {
	CurrentHealth float64 // 当前生命值
	MaxHealth     float64 // 最大生命值
}
