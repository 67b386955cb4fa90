package sim

import (
	"github.com/decker502/wavebreak/pkg/components"
	"github.com/decker502/wavebreak/pkg/ecs"
)

// Damageable 可受伤害的对象
// 敌人、首领与玩家共用同一能力接口
type Damageable interface {
	// Damage 扣除生命值，返回本次伤害是否致死
	Damage(amount float64) bool
	// Alive 是否存活
	Alive() bool
}

// entityTarget 拥有 HealthComponent 的实体
type entityTarget struct {
	em *ecs.EntityManager
	id ecs.EntityID
}

// targetOf 将实体包装为 Damageable
func targetOf(em *ecs.EntityManager, id ecs.EntityID) Damageable {
	return entityTarget{em: em, id: id}
}

func (t entityTarget) Alive() bool {
	if !t.em.IsAlive(t.id) || t.em.IsPendingDestroy(t.id) {
		return false
	}
	health, ok := ecs.GetComponent[*components.HealthComponent](t.em, t.id)
	return ok && health.CurrentHealth > 0
}

// Damage 生命值归零时标记实体删除
func (t entityTarget) Damage(amount float64) bool {
	if amount <= 0 || !t.Alive() {
		return false
	}
	health, _ := ecs.GetComponent[*components.HealthComponent](t.em, t.id)
	health.CurrentHealth -= amount
	if health.CurrentHealth > 0 {
		return false
	}
	health.CurrentHealth = 0
	t.em.DestroyEntity(t.id)
	return true
}

// Player 玩家
type Player struct {
	Health    float64
	MaxHealth float64
}

// NewPlayer 创建满血玩家
func NewPlayer(maxHealth float64) *Player {
	return &Player{Health: maxHealth, MaxHealth: maxHealth}
}

// Alive 是否存活
func (p *Player) Alive() bool {
	return p.Health > 0
}

// Damage 扣除生命值
func (p *Player) Damage(amount float64) bool {
	if amount <= 0 || !p.Alive() {
		return false
	}
	p.Health -= amount
	if p.Health > 0 {
		return false
	}
	p.Health = 0
	return true
}

// Reset 恢复满血
func (p *Player) Reset() {
	p.Health = p.MaxHealth
}
