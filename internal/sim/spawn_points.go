package sim

import (
	"log"

	"github.com/decker502/wavebreak/pkg/components"
	"github.com/decker502/wavebreak/pkg/ecs"
)

// spawnPoint 模拟生成点
// 收到的敌人数累加到队列中，由 World 按 SpawnStagger 间隔逐个释放
type spawnPoint struct {
	queue *components.SpawnQueueComponent
}

func newSpawnPoint(em *ecs.EntityManager, id string) *spawnPoint {
	queue := &components.SpawnQueueComponent{SpawnPointID: id}
	entity := em.CreateEntity()
	ecs.AddComponent(em, entity, queue)
	return &spawnPoint{queue: queue}
}

func (sp *spawnPoint) ID() string {
	return sp.queue.SpawnPointID
}

// BeginSpawning 追加待释放的敌人
func (sp *spawnPoint) BeginSpawning(count int) {
	if count <= 0 {
		return
	}
	sp.queue.Pending += count
}

func (sp *spawnPoint) SpeedModifier() float64 {
	return sp.queue.SpeedModifier
}

func (sp *spawnPoint) SetSpeedModifier(value float64) {
	sp.queue.SpeedModifier = value
}

// clear 丢弃未释放的敌人
func (sp *spawnPoint) clear() {
	sp.queue.Pending = 0
	sp.queue.Cooldown = 0
}

// bossSpawnPoint 模拟首领生成点
type bossSpawnPoint struct {
	world *World
}

// BeginBossSpawn 在场上创建首领实体
func (b *bossSpawnPoint) BeginBossSpawn(bossID string) {
	w := b.world
	entity := w.em.CreateEntity()
	hp := w.simConfig.BossHealthFor(bossID)
	ecs.AddComponent(w.em, entity, &components.BossComponent{
		BossID: bossID,
		Value:  w.simConfig.BossValue,
	})
	ecs.AddComponent(w.em, entity, &components.HealthComponent{
		CurrentHealth: hp,
		MaxHealth:     hp,
	})
	log.Printf("[World] Boss %s spawned (entity %d, hp %.0f)", bossID, entity, hp)
}
