package systems

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/decker502/wavebreak/pkg/components"
	"github.com/decker502/wavebreak/pkg/config"
	"github.com/decker502/wavebreak/pkg/events"
)

// SpawnPoint 敌人生成点（外部协作者）
type SpawnPoint interface {
	// ID 生成点标识，与配置中的 spawnPoints[].id 对应
	ID() string
	// BeginSpawning 开始生成 count 个敌人
	BeginSpawning(count int)
	// SpeedModifier 当前速度加成
	SpeedModifier() float64
	// SetSpeedModifier 设置速度加成
	SetSpeedModifier(value float64)
}

// BossSpawnPoint 首领生成点（外部协作者）
type BossSpawnPoint interface {
	BeginBossSpawn(bossID string)
}

// EnemyPopulation 场上敌人数量查询（外部协作者）
type EnemyPopulation interface {
	AllEnemiesCleared() bool
}

// SpawnSchedulerDeps 调度器依赖
type SpawnSchedulerDeps struct {
	Bus         events.EventBus
	SpawnPoints []SpawnPoint
	BossSpawner BossSpawnPoint
	Population  EnemyPopulation // 可为 nil，视为场上始终无敌人
	Rand        *rand.Rand      // 可为 nil，按配置种子创建
}

// consumedSignals 调度器订阅的信号
var consumedSignals = []events.SignalType{
	events.MissionRestart,
	events.CountdownFinished,
	events.PlayerDied,
	events.BossDistanceReached,
	events.EnemyPopulationEmpty,
	events.BossDied,
}

// SpawnScheduler 波次与首领调度系统
//
// 职责：
//   - 管理波次间隔计时，每个 tick 按权重把敌人分配到各生成点
//   - 到达首领距离后停止波次，等待场上敌人清空后选择首领
//   - 首领警告延迟结束后通知首领生成点
//   - 首领被击败后提升难度、增加生成点速度加成，恢复等待后继续波次
//   - 任务重新开始时取消所有计时器并恢复基础配置
//
// 状态转换：
//
//	Idle --countdown-finished--> WaveSpawning
//	WaveSpawning --boss-distance-reached--> BossPending
//	BossPending --敌人清空--> BossActive
//	BossActive --boss-died--> PostBossRecovery
//	PostBossRecovery --恢复延迟--> WaveSpawning
//	任意非 Idle 状态 --player-died--> Idle
//	任意状态 --mission-restart--> Idle（重置）
//
// 架构说明：
//   - 所有状态只在 Update 与 OnEvent 中修改，二者都运行在游戏循环线程
//   - 通过事件总线接收外部信号，订阅在构造时注册、在 Close 时移除
//   - 对当前状态无效的信号记录警告并忽略
type SpawnScheduler struct {
	bus         events.EventBus
	config      *config.SchedulerConfig
	spawnPoints []SpawnPoint
	pointByID   map[string]SpawnPoint
	bossSpawner BossSpawnPoint
	population  EnemyPopulation
	rng         *rand.Rand

	difficulty *DifficultyProgression
	rotation   *BossRotation

	state        components.SchedulerState
	wave         components.WaveConfig
	bossPending  bool
	activeBoss   string
	bossReleased bool

	waveTimer     *SchedulerTimer
	warningTimer  *SchedulerTimer
	recoveryTimer *SchedulerTimer

	wavesDispatched int
	bossesDefeated  int
	closed          bool

	// verbose 是否输出详细日志
	verbose bool
}

// NewSpawnScheduler 创建调度器并订阅信号
//
// 参数：
//   - cfg: 已校验的调度配置
//   - deps: 事件总线与外部协作者
//
// 返回：
//   - error: 总线为空，或配置中的生成点没有对应的协作者
func NewSpawnScheduler(cfg *config.SchedulerConfig, deps SpawnSchedulerDeps) (*SpawnScheduler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("scheduler config is nil")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("event bus is nil")
	}

	pointByID := make(map[string]SpawnPoint, len(deps.SpawnPoints))
	for _, sp := range deps.SpawnPoints {
		if sp == nil {
			continue
		}
		pointByID[sp.ID()] = sp
	}
	for _, w := range cfg.SpawnPoints {
		if _, ok := pointByID[w.ID]; !ok {
			return nil, fmt.Errorf("no spawn point registered for configured id %q", w.ID)
		}
	}

	// 运行时不因权重偏差失败，仅提示
	if report, err := config.ValidateSpawnWeights(cfg.SpawnPoints); err != nil {
		log.Printf("[SpawnScheduler] Warning: %v (total=%.4f, drift=%+.4f), last spawn point absorbs the remainder",
			err, report.Total, report.Drift)
	}

	rng := deps.Rand
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	s := &SpawnScheduler{
		bus:           deps.Bus,
		config:        cfg,
		spawnPoints:   deps.SpawnPoints,
		pointByID:     pointByID,
		bossSpawner:   deps.BossSpawner,
		population:    deps.Population,
		rng:           rng,
		difficulty:    NewDifficultyProgressionFromConfig(cfg),
		rotation:      NewBossRotation(cfg.Bosses, rng),
		waveTimer:     NewSchedulerTimer("wave"),
		warningTimer:  NewSchedulerTimer("boss-warning"),
		recoveryTimer: NewSchedulerTimer("recovery"),
	}
	s.reset()

	for _, signal := range consumedSignals {
		s.bus.Subscribe(signal, s)
	}

	log.Printf("[SpawnScheduler] Created: %d spawn points, %d bosses, %d enemies/wave every %.2fs",
		len(cfg.SpawnPoints), len(cfg.Bosses), s.wave.EnemiesPerWave, s.wave.SpawnInterval)

	return s, nil
}

// Close 取消所有订阅与计时器
// 重复调用为空操作
func (s *SpawnScheduler) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, signal := range consumedSignals {
		s.bus.Unsubscribe(signal, s)
	}
	s.cancelTimers()
	log.Printf("[SpawnScheduler] Closed")
}

// OnEvent 处理订阅的信号（由事件总线在游戏循环线程调用）
func (s *SpawnScheduler) OnEvent(event events.Event) {
	if s.closed {
		return
	}

	switch event.Type {
	case events.MissionRestart:
		s.handleMissionRestart()
	case events.CountdownFinished:
		s.handleCountdownFinished()
	case events.PlayerDied:
		s.handlePlayerDied()
	case events.BossDistanceReached:
		s.handleBossDistanceReached()
	case events.EnemyPopulationEmpty:
		s.handleEnemyPopulationEmpty()
	case events.BossDied:
		payload, _ := event.Payload.(events.BossDiedPayload)
		s.handleBossDied(payload)
	}
}

// Update 推进当前状态持有的计时器
//
// 参数：
//   - deltaTime: 自上一帧以来经过的时间（秒）
func (s *SpawnScheduler) Update(deltaTime float64) {
	if s.closed {
		return
	}

	switch s.state {
	case components.SchedulerWaveSpawning:
		if s.waveTimer.Update(deltaTime) {
			overshoot := s.waveTimer.Overshoot()
			s.dispatchWave()
			// dispatchWave 不会改变状态，这里直接开始下一周期，扣除本帧越过的时间
			s.waveTimer.Start(s.wave.SpawnInterval - overshoot)
		}

	case components.SchedulerBossPending:
		if s.enemiesCleared() {
			s.startBossSequence()
		}

	case components.SchedulerBossActive:
		if s.warningTimer.Update(deltaTime) {
			s.releaseBoss()
		}

	case components.SchedulerPostBossRecovery:
		if s.recoveryTimer.Update(deltaTime) {
			log.Printf("[SpawnScheduler] Recovery finished, resuming waves every %.2fs", s.wave.SpawnInterval)
			s.startWaves()
		}
	}
}

// handleMissionRestart 任意状态硬重置到 Idle
func (s *SpawnScheduler) handleMissionRestart() {
	log.Printf("[SpawnScheduler] Mission restart from %s", s.state)
	s.reset()
}

func (s *SpawnScheduler) handleCountdownFinished() {
	if s.state != components.SchedulerIdle {
		s.warnIgnored(events.CountdownFinished)
		return
	}
	s.startWaves()
}

// handlePlayerDied 停止一切会产生生成的计时
func (s *SpawnScheduler) handlePlayerDied() {
	if s.state == components.SchedulerIdle {
		s.warnIgnored(events.PlayerDied)
		return
	}

	s.cancelTimers()
	s.bossPending = false
	s.activeBoss = ""
	s.bossReleased = false
	s.setState(components.SchedulerIdle)
}

func (s *SpawnScheduler) handleBossDistanceReached() {
	if s.state != components.SchedulerWaveSpawning {
		s.warnIgnored(events.BossDistanceReached)
		return
	}

	s.waveTimer.Cancel()
	s.bossPending = true
	s.setState(components.SchedulerBossPending)

	if s.enemiesCleared() {
		s.startBossSequence()
	}
}

func (s *SpawnScheduler) handleEnemyPopulationEmpty() {
	if s.state != components.SchedulerBossPending {
		// 波次进行中敌人清空属于常态，不视为乱序
		if s.verbose {
			log.Printf("[SpawnScheduler] enemy-population-empty in %s, nothing to do", s.state)
		}
		return
	}
	s.startBossSequence()
}

func (s *SpawnScheduler) handleBossDied(payload events.BossDiedPayload) {
	if s.state != components.SchedulerBossActive || !s.bossReleased {
		s.warnIgnored(events.BossDied)
		return
	}
	if payload.BossID != "" && payload.BossID != s.activeBoss {
		log.Printf("[SpawnScheduler] Warning: boss-died for %q but active boss is %q, ignored",
			payload.BossID, s.activeBoss)
		return
	}

	s.warningTimer.Cancel()
	s.bossesDefeated++

	previous := s.wave
	s.wave = s.difficulty.ApplyBossDefeat(s.wave)
	log.Printf("[SpawnScheduler] Boss %s defeated (#%d): interval %.2fs -> %.2fs, enemies/wave %d -> %d, phase %s",
		s.activeBoss, s.bossesDefeated, previous.SpawnInterval, s.wave.SpawnInterval,
		previous.EnemiesPerWave, s.wave.EnemiesPerWave, s.difficulty.Phase(previous))

	for _, sp := range s.spawnPoints {
		sp.SetSpeedModifier(sp.SpeedModifier() + s.config.SpeedModifierStep)
	}

	s.activeBoss = ""
	s.bossReleased = false
	s.setState(components.SchedulerPostBossRecovery)
	s.recoveryTimer.Start(s.config.RecoveryDelay)
}

// startWaves 进入 WaveSpawning 并启动波次计时
// 第一波在一个完整间隔之后生成
func (s *SpawnScheduler) startWaves() {
	s.setState(components.SchedulerWaveSpawning)
	s.waveTimer.Start(s.wave.SpawnInterval)
}

// dispatchWave 生成一波敌人
//
// 执行流程：
//  1. 发布 wave-starting
//  2. 为每个敌人抽一个随机数，按权重选择生成点并计数
//  3. 通知计数非零的生成点开始生成
func (s *SpawnScheduler) dispatchWave() {
	s.wavesDispatched++
	s.bus.Publish(events.Event{
		Type: events.WaveStarting,
		Payload: events.WaveStartingPayload{
			Wave:    s.wavesDispatched,
			Enemies: s.wave.EnemiesPerWave,
		},
	})

	request := s.buildWaveRequest()

	for _, w := range s.config.SpawnPoints {
		count := request[w.ID]
		if count == 0 {
			continue
		}
		s.pointByID[w.ID].BeginSpawning(count)
	}

	log.Printf("[SpawnScheduler] Wave %d dispatched: %v", s.wavesDispatched, request)
}

// buildWaveRequest 按权重把本波敌人分配到生成点
func (s *SpawnScheduler) buildWaveRequest() components.PendingWaveRequest {
	request := make(components.PendingWaveRequest, len(s.config.SpawnPoints))
	for i := 0; i < s.wave.EnemiesPerWave; i++ {
		id, ok := SelectSpawnPoint(s.config.SpawnPoints, s.rng.Float64())
		if !ok {
			break
		}
		request[id]++
	}
	return request
}

// startBossSequence 选择首领并开始警告倒计时
func (s *SpawnScheduler) startBossSequence() {
	s.bossPending = false

	boss, err := s.rotation.SelectNext()
	if err != nil {
		log.Printf("[SpawnScheduler] ERROR: cannot select boss: %v, resuming waves", err)
		s.startWaves()
		return
	}

	s.activeBoss = boss
	s.bossReleased = false
	s.setState(components.SchedulerBossActive)

	s.bus.Publish(events.Event{
		Type:    events.BossSelected,
		Payload: events.BossSelectedPayload{BossID: boss},
	})
	s.warningTimer.Start(s.config.BossWarningDelay)

	log.Printf("[SpawnScheduler] Boss %s selected, releasing in %.2fs (%d left this rotation)",
		boss, s.config.BossWarningDelay, len(s.rotation.Remaining()))
}

// releaseBoss 警告结束，通知首领生成点
func (s *SpawnScheduler) releaseBoss() {
	s.bossReleased = true
	if s.bossSpawner == nil {
		log.Printf("[SpawnScheduler] Warning: no boss spawn point, boss %s not spawned", s.activeBoss)
		return
	}
	s.bossSpawner.BeginBossSpawn(s.activeBoss)
	log.Printf("[SpawnScheduler] Boss %s released", s.activeBoss)
}

// reset 取消计时器并恢复基础配置
func (s *SpawnScheduler) reset() {
	s.cancelTimers()
	s.wave = s.difficulty.Reset()
	s.rotation.Reset()
	s.bossPending = false
	s.activeBoss = ""
	s.bossReleased = false
	s.wavesDispatched = 0
	s.bossesDefeated = 0
	for _, sp := range s.spawnPoints {
		sp.SetSpeedModifier(0)
	}
	s.setState(components.SchedulerIdle)
}

func (s *SpawnScheduler) cancelTimers() {
	for _, timer := range []*SchedulerTimer{s.waveTimer, s.warningTimer, s.recoveryTimer} {
		if s.verbose && timer.Active() {
			log.Printf("[SpawnScheduler] Timer %s cancelled with %.2fs left", timer.Name(), timer.Remaining())
		}
		timer.Cancel()
	}
}

func (s *SpawnScheduler) enemiesCleared() bool {
	return s.population == nil || s.population.AllEnemiesCleared()
}

func (s *SpawnScheduler) setState(next components.SchedulerState) {
	if s.state == next {
		return
	}
	log.Printf("[SpawnScheduler] State: %s -> %s", s.state, next)
	s.state = next
}

func (s *SpawnScheduler) warnIgnored(signal events.SignalType) {
	log.Printf("[SpawnScheduler] Warning: %s ignored in state %s", signal, s.state)
}

// State 当前状态
func (s *SpawnScheduler) State() components.SchedulerState {
	return s.state
}

// WaveConfig 当前波次配置（副本）
func (s *SpawnScheduler) WaveConfig() components.WaveConfig {
	return s.wave
}

// ActiveBoss 当前首领，未处于 BossActive 时为空
func (s *SpawnScheduler) ActiveBoss() string {
	return s.activeBoss
}

// BossPending 是否在等待场上敌人清空
func (s *SpawnScheduler) BossPending() bool {
	return s.bossPending
}

// WavesDispatched 本次任务已生成的波次数
func (s *SpawnScheduler) WavesDispatched() int {
	return s.wavesDispatched
}

// BossesDefeated 本次任务已击败的首领数
func (s *SpawnScheduler) BossesDefeated() int {
	return s.bossesDefeated
}

// DifficultyPhase 当前难度阶段
func (s *SpawnScheduler) DifficultyPhase() DifficultyPhase {
	return s.difficulty.Phase(s.wave)
}

// RemainingBosses 本轮尚未出场的首领
func (s *SpawnScheduler) RemainingBosses() []string {
	return s.rotation.Remaining()
}

// WaveCountdown 距离下一波的秒数，未在生成波次时为 0
func (s *SpawnScheduler) WaveCountdown() float64 {
	return s.waveTimer.Remaining()
}

// SetVerbose 设置是否输出详细日志
func (s *SpawnScheduler) SetVerbose(verbose bool) {
	s.verbose = verbose
}
