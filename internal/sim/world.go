// Package sim 提供一个无渲染的模拟世界
//
// World 扮演调度器的外部协作者：生成点、首领生成点、敌人数量、
// 航行距离、任务倒计时与玩家生死，并把这些变化转换为事件总线上的信号。
package sim

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/decker502/wavebreak/pkg/components"
	"github.com/decker502/wavebreak/pkg/config"
	"github.com/decker502/wavebreak/pkg/ecs"
	"github.com/decker502/wavebreak/pkg/events"
	"github.com/decker502/wavebreak/pkg/systems"
)

// timerEpsilon 浮点累加误差容限
const timerEpsilon = 1e-9

// Options World 的可选依赖
type Options struct {
	Bus  *events.Bus // 可为 nil，内部创建
	Rand *rand.Rand  // 可为 nil，按调度配置种子创建
}

// SpawnPointStats 生成点状态快照
type SpawnPointStats struct {
	ID            string
	Pending       int
	Released      int
	SpeedModifier float64
}

// Snapshot 世界状态快照（供界面与命令行输出）
type Snapshot struct {
	Elapsed         float64
	State           components.SchedulerState
	Wave            components.WaveConfig
	Phase           systems.DifficultyPhase
	WaveCountdown   float64
	WavesDispatched int
	BossesDefeated  int
	ActiveBoss      string
	Distance        float64 // 本段已航行距离
	BossDistance    float64
	Enemies         int
	Bosses          int
	PlayerHealth    float64
	PlayerMaxHealth float64
	Missions        int
	SpawnPoints     []SpawnPointStats
}

// World 模拟世界
//
// 每次 Update 的执行顺序：
//  1. 派发上一帧之后外部发布的信号
//  2. 推进调度器计时器，派发调度器发布的信号
//  3. 任务倒计时、航行距离、生成点释放、敌人移动、战斗
//  4. 清理死亡实体，检查敌人是否清空
//  5. 派发本帧产生的信号
//
// 调度器计时器先于模拟推进：本帧产生的 player-died、boss-distance-reached
// 在帧末派发给调度器，下一帧的计时器已被取消。信号处理中启动的计时器
// 也从下一帧开始计时。
//
// World 不是并发安全的，Update 与 Snapshot 必须在同一 goroutine 调用
type World struct {
	bus       *events.Bus
	em        *ecs.EntityManager
	scheduler *systems.SpawnScheduler
	simConfig *config.SimulationConfig

	spawnPoints []*spawnPoint
	player      *Player

	countdown    *systems.SchedulerTimer
	restartTimer *systems.SchedulerTimer

	distance        float64
	populationAlive bool
	elapsed         float64
	missions        int // 已开始的任务数
}

// NewWorld 创建模拟世界与调度器
//
// 参数：
//   - schedCfg: 已校验的调度配置，生成点按 spawnPoints[].id 创建
//   - simCfg: 模拟配置，为 nil 时使用默认值
//   - opts: 可选依赖
func NewWorld(schedCfg *config.SchedulerConfig, simCfg *config.SimulationConfig, opts Options) (*World, error) {
	if schedCfg == nil {
		return nil, fmt.Errorf("scheduler config is nil")
	}
	if simCfg == nil {
		simCfg = config.DefaultSimulationConfig()
	}

	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus()
	}

	w := &World{
		bus:          bus,
		em:           ecs.NewEntityManager(),
		simConfig:    simCfg,
		player:       NewPlayer(simCfg.PlayerHealth),
		countdown:    systems.NewSchedulerTimer("countdown"),
		restartTimer: systems.NewSchedulerTimer("restart"),
	}

	points := make([]systems.SpawnPoint, 0, len(schedCfg.SpawnPoints))
	for _, sp := range schedCfg.SpawnPoints {
		point := newSpawnPoint(w.em, sp.ID)
		w.spawnPoints = append(w.spawnPoints, point)
		points = append(points, point)
	}

	// World 先于调度器订阅 mission-restart，保证重置实体在调度器重置之前
	bus.Subscribe(events.MissionRestart, w)

	scheduler, err := systems.NewSpawnScheduler(schedCfg, systems.SpawnSchedulerDeps{
		Bus:         bus,
		SpawnPoints: points,
		BossSpawner: &bossSpawnPoint{world: w},
		Population:  w,
		Rand:        opts.Rand,
	})
	if err != nil {
		bus.Unsubscribe(events.MissionRestart, w)
		return nil, fmt.Errorf("failed to create spawn scheduler: %w", err)
	}
	w.scheduler = scheduler

	log.Printf("[World] Created with %d spawn points, boss every %.0f distance",
		len(w.spawnPoints), simCfg.BossDistance)
	return w, nil
}

// Start 发布 mission-restart 开始第一次任务
func (w *World) Start() {
	w.bus.Publish(events.Event{Type: events.MissionRestart})
}

// Close 释放调度器与订阅
func (w *World) Close() {
	w.scheduler.Close()
	w.bus.Unsubscribe(events.MissionRestart, w)
}

// OnEvent 处理 mission-restart：清空场地、恢复玩家并开始倒计时
func (w *World) OnEvent(event events.Event) {
	if event.Type != events.MissionRestart {
		return
	}

	for _, id := range ecs.GetEntitiesWith1[*components.EnemyComponent](w.em) {
		w.em.DestroyEntity(id)
	}
	for _, id := range ecs.GetEntitiesWith1[*components.BossComponent](w.em) {
		w.em.DestroyEntity(id)
	}
	w.em.RemoveMarkedEntities()

	for _, sp := range w.spawnPoints {
		sp.clear()
		sp.queue.Released = 0
	}

	w.player.Reset()
	w.distance = 0
	w.populationAlive = false
	w.restartTimer.Cancel()
	w.countdown.Start(w.simConfig.CountdownDuration)
	w.missions++

	log.Printf("[World] Mission started, countdown %.1fs", w.simConfig.CountdownDuration)
}

// Update 推进一帧
//
// 参数：
//   - deltaTime: 自上一帧以来经过的时间（秒）
func (w *World) Update(deltaTime float64) {
	w.bus.Flush()

	w.scheduler.Update(deltaTime)
	w.bus.Flush()

	w.updateCountdown(deltaTime)
	w.updateDistance(deltaTime)
	w.updateSpawnPoints(deltaTime)
	w.updateEnemies(deltaTime)
	w.updateCombat(deltaTime)

	w.em.RemoveMarkedEntities()
	w.updatePopulation()
	w.updateRestart(deltaTime)

	w.bus.Flush()

	w.elapsed += deltaTime
}

func (w *World) updateCountdown(deltaTime float64) {
	if w.countdown.Update(deltaTime) {
		log.Printf("[World] Countdown finished")
		w.bus.Publish(events.Event{Type: events.CountdownFinished})
	}
}

// updateDistance 只在波次阶段累计航行距离
func (w *World) updateDistance(deltaTime float64) {
	if w.scheduler.State() != components.SchedulerWaveSpawning || !w.player.Alive() {
		return
	}

	w.distance += w.simConfig.ScrollSpeed * deltaTime
	if w.distance+timerEpsilon >= w.simConfig.BossDistance {
		w.distance = 0
		log.Printf("[World] Boss distance reached")
		w.bus.Publish(events.Event{Type: events.BossDistanceReached})
	}
}

// updateSpawnPoints 按间隔释放生成点队列中的敌人
func (w *World) updateSpawnPoints(deltaTime float64) {
	for _, sp := range w.spawnPoints {
		queue := sp.queue
		if queue.Pending == 0 {
			continue
		}

		queue.Cooldown -= deltaTime
		for queue.Pending > 0 && queue.Cooldown <= timerEpsilon {
			w.spawnEnemy(queue)
			queue.Pending--
			queue.Released++
			queue.Cooldown += w.simConfig.SpawnStagger
		}
		if queue.Pending == 0 {
			queue.Cooldown = 0
		}
	}
}

// spawnEnemy 创建敌人实体，速度按生成点加成放大
func (w *World) spawnEnemy(queue *components.SpawnQueueComponent) {
	entity := w.em.CreateEntity()
	ecs.AddComponent(w.em, entity, &components.EnemyComponent{
		SpawnPointID: queue.SpawnPointID,
		Speed:        w.simConfig.EnemySpeed * (1 + queue.SpeedModifier),
		WaveNumber:   w.scheduler.WavesDispatched(),
	})
	ecs.AddComponent(w.em, entity, &components.HealthComponent{
		CurrentHealth: w.simConfig.EnemyHealth,
		MaxHealth:     w.simConfig.EnemyHealth,
	})
	w.populationAlive = true
}

// updateEnemies 敌人沿航道前进，到达终点时撞击玩家
func (w *World) updateEnemies(deltaTime float64) {
	for _, id := range ecs.GetEntitiesWith1[*components.EnemyComponent](w.em) {
		if w.em.IsPendingDestroy(id) {
			continue
		}
		enemy, _ := ecs.GetComponent[*components.EnemyComponent](w.em, id)
		enemy.Progress += enemy.Speed * deltaTime
		if enemy.Progress+timerEpsilon < w.simConfig.LaneLength {
			continue
		}

		w.em.DestroyEntity(id)
		w.hit(w.player, w.simConfig.EnemyDamage)
	}
}

// updateCombat 玩家优先攻击首领，否则攻击最靠近的敌人
func (w *World) updateCombat(deltaTime float64) {
	if !w.player.Alive() || w.simConfig.PlayerDPS <= 0 {
		return
	}

	damage := w.simConfig.PlayerDPS * deltaTime

	if bossID, ok := w.firstLiving(ecs.GetEntitiesWith1[*components.BossComponent](w.em)); ok {
		boss, _ := ecs.GetComponent[*components.BossComponent](w.em, bossID)
		if w.hit(targetOf(w.em, bossID), damage) {
			log.Printf("[World] Boss %s destroyed", boss.BossID)
			w.bus.Publish(events.Event{
				Type:    events.BossDied,
				Payload: events.BossDiedPayload{BossID: boss.BossID, Value: boss.Value},
			})
		}
		return
	}

	if enemyID, ok := w.leadingEnemy(); ok {
		w.hit(targetOf(w.em, enemyID), damage)
	}
}

// hit 对目标造成伤害，玩家死亡时发布 player-died
func (w *World) hit(target Damageable, amount float64) bool {
	killed := target.Damage(amount)
	if killed && target == Damageable(w.player) {
		log.Printf("[World] Player destroyed, restarting in %.1fs", w.simConfig.RestartDelay)
		w.bus.Publish(events.Event{Type: events.PlayerDied})
		w.countdown.Cancel()
		w.restartTimer.Start(w.simConfig.RestartDelay)
	}
	return killed
}

func (w *World) firstLiving(ids []ecs.EntityID) (ecs.EntityID, bool) {
	for _, id := range ids {
		if !w.em.IsPendingDestroy(id) {
			return id, true
		}
	}
	return 0, false
}

// leadingEnemy 航道上前进最远的存活敌人
func (w *World) leadingEnemy() (ecs.EntityID, bool) {
	var (
		best     ecs.EntityID
		progress float64
		found    bool
	)
	for _, id := range ecs.GetEntitiesWith1[*components.EnemyComponent](w.em) {
		if w.em.IsPendingDestroy(id) {
			continue
		}
		enemy, _ := ecs.GetComponent[*components.EnemyComponent](w.em, id)
		if !found || enemy.Progress > progress {
			best, progress, found = id, enemy.Progress, true
		}
	}
	return best, found
}

// updatePopulation 场上敌人由有变无时发布 enemy-population-empty
func (w *World) updatePopulation() {
	cleared := w.AllEnemiesCleared()
	if cleared && w.populationAlive {
		w.populationAlive = false
		w.bus.Publish(events.Event{Type: events.EnemyPopulationEmpty})
	}
}

func (w *World) updateRestart(deltaTime float64) {
	if w.restartTimer.Update(deltaTime) {
		w.bus.Publish(events.Event{Type: events.MissionRestart})
	}
}

// AllEnemiesCleared 场上没有存活敌人且生成点队列为空
func (w *World) AllEnemiesCleared() bool {
	if ecs.CountWith1[*components.EnemyComponent](w.em) > 0 {
		return false
	}
	for _, sp := range w.spawnPoints {
		if sp.queue.Pending > 0 {
			return false
		}
	}
	return true
}

// Bus 事件总线
func (w *World) Bus() *events.Bus {
	return w.bus
}

// Scheduler 调度器
func (w *World) Scheduler() *systems.SpawnScheduler {
	return w.scheduler
}

// Player 玩家
func (w *World) Player() *Player {
	return w.player
}

// Entities 实体管理器
func (w *World) Entities() *ecs.EntityManager {
	return w.em
}

// Snapshot 返回当前状态快照
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Elapsed:         w.elapsed,
		State:           w.scheduler.State(),
		Wave:            w.scheduler.WaveConfig(),
		Phase:           w.scheduler.DifficultyPhase(),
		WaveCountdown:   w.scheduler.WaveCountdown(),
		WavesDispatched: w.scheduler.WavesDispatched(),
		BossesDefeated:  w.scheduler.BossesDefeated(),
		ActiveBoss:      w.scheduler.ActiveBoss(),
		Distance:        w.distance,
		BossDistance:    w.simConfig.BossDistance,
		Enemies:         ecs.CountWith1[*components.EnemyComponent](w.em),
		Bosses:          ecs.CountWith1[*components.BossComponent](w.em),
		PlayerHealth:    w.player.Health,
		PlayerMaxHealth: w.player.MaxHealth,
		Missions:        w.missions,
	}
	for _, sp := range w.spawnPoints {
		s.SpawnPoints = append(s.SpawnPoints, SpawnPointStats{
			ID:            sp.queue.SpawnPointID,
			Pending:       sp.queue.Pending,
			Released:      sp.queue.Released,
			SpeedModifier: sp.queue.SpeedModifier,
		})
	}
	return s
}
