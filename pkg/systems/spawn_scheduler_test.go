package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decker502/wavebreak/pkg/components"
	"github.com/decker502/wavebreak/pkg/config"
	"github.com/decker502/wavebreak/pkg/events"
)

// 测试辅助类型

const testTick = 0.25

type fakeSpawnPoint struct {
	id        string
	requests  []int
	modifier  float64
	modifiers []float64
}

func (f *fakeSpawnPoint) ID() string              { return f.id }
func (f *fakeSpawnPoint) BeginSpawning(count int) { f.requests = append(f.requests, count) }
func (f *fakeSpawnPoint) SpeedModifier() float64  { return f.modifier }

func (f *fakeSpawnPoint) SetSpeedModifier(v float64) {
	f.modifier = v
	f.modifiers = append(f.modifiers, v)
}

func (f *fakeSpawnPoint) total() int {
	n := 0
	for _, c := range f.requests {
		n += c
	}
	return n
}

type fakeBossSpawner struct {
	spawned []string
}

func (f *fakeBossSpawner) BeginBossSpawn(bossID string) {
	f.spawned = append(f.spawned, bossID)
}

type fakePopulation struct {
	cleared bool
}

func (f *fakePopulation) AllEnemiesCleared() bool { return f.cleared }

type signalRecorder struct {
	waves  []events.WaveStartingPayload
	bosses []string
}

func (r *signalRecorder) OnEvent(event events.Event) {
	switch p := event.Payload.(type) {
	case events.WaveStartingPayload:
		r.waves = append(r.waves, p)
	case events.BossSelectedPayload:
		r.bosses = append(r.bosses, p.BossID)
	}
}

type schedulerHarness struct {
	t      *testing.T
	bus    *events.Bus
	sched  *SpawnScheduler
	top    *fakeSpawnPoint
	bottom *fakeSpawnPoint
	boss   *fakeBossSpawner
	pop    *fakePopulation
	rec    *signalRecorder
	cfg    *config.SchedulerConfig
}

// scenarioConfig 端到端场景配置：3 个敌人，0.7/0.3，间隔 5 秒，最多缩短 2 次，每次 1 秒
func scenarioConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		SpawnPoints: []config.SpawnPointWeight{
			{ID: "top", Weight: 0.7},
			{ID: "bottom", Weight: 0.3},
		},
		EnemiesPerWave:        3,
		SpawnInterval:         5.0,
		IntervalReductionStep: 1.0,
		MaxReductions:         2,
		OffsetPerEnemy:        0.5,
		Bosses:                []string{"Robodactyl", "Behemoth"},
		BossWarningDelay:      2.0,
		RecoveryDelay:         2.0,
		SpeedModifierStep:     0.1,
	}
}

func newHarness(t *testing.T, cfg *config.SchedulerConfig, seed int64) *schedulerHarness {
	t.Helper()

	h := &schedulerHarness{
		t:      t,
		bus:    events.NewBus(),
		top:    &fakeSpawnPoint{id: "top"},
		bottom: &fakeSpawnPoint{id: "bottom"},
		boss:   &fakeBossSpawner{},
		pop:    &fakePopulation{cleared: false},
		rec:    &signalRecorder{},
		cfg:    cfg,
	}
	h.bus.Subscribe(events.WaveStarting, h.rec)
	h.bus.Subscribe(events.BossSelected, h.rec)

	sched, err := NewSpawnScheduler(cfg, SpawnSchedulerDeps{
		Bus:         h.bus,
		SpawnPoints: []SpawnPoint{h.top, h.bottom},
		BossSpawner: h.boss,
		Population:  h.pop,
		Rand:        rand.New(rand.NewSource(seed)),
	})
	require.NoError(t, err)
	h.sched = sched
	t.Cleanup(sched.Close)
	return h
}

// signal 发布信号并立即派发
func (h *schedulerHarness) signal(signal events.SignalType, payload any) {
	h.bus.Publish(events.Event{Type: signal, Payload: payload})
	h.bus.Flush()
}

// step 推进一个 tick
func (h *schedulerHarness) step() {
	h.bus.Flush()
	h.sched.Update(testTick)
	h.bus.Flush()
}

// advance 推进 seconds 秒
func (h *schedulerHarness) advance(seconds float64) {
	steps := int(math.Round(seconds / testTick))
	for i := 0; i < steps; i++ {
		h.step()
	}
}

func (h *schedulerHarness) totalRequested() int {
	return h.top.total() + h.bottom.total()
}

// toBossActive 推进到 BossActive（警告中）
func (h *schedulerHarness) toBossActive() string {
	h.signal(events.CountdownFinished, nil)
	h.signal(events.BossDistanceReached, nil)
	h.pop.cleared = true
	h.step()
	require.Equal(h.t, components.SchedulerBossActive, h.sched.State())
	return h.sched.ActiveBoss()
}

// toBossReleased 推进到首领已出场
func (h *schedulerHarness) toBossReleased() string {
	boss := h.toBossActive()
	h.advance(h.cfg.BossWarningDelay)
	require.Equal(h.t, []string{boss}, h.boss.spawned)
	return boss
}

func TestNewSpawnScheduler_Errors(t *testing.T) {
	bus := events.NewBus()

	_, err := NewSpawnScheduler(nil, SpawnSchedulerDeps{Bus: bus})
	assert.Error(t, err)

	_, err = NewSpawnScheduler(scenarioConfig(), SpawnSchedulerDeps{})
	assert.ErrorContains(t, err, "event bus is nil")

	_, err = NewSpawnScheduler(scenarioConfig(), SpawnSchedulerDeps{
		Bus:         bus,
		SpawnPoints: []SpawnPoint{&fakeSpawnPoint{id: "top"}},
	})
	assert.ErrorContains(t, err, `"bottom"`)
}

func TestSpawnScheduler_InitialState(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)

	assert.Equal(t, components.SchedulerIdle, h.sched.State())
	assert.Equal(t, 3, h.sched.WaveConfig().EnemiesPerWave)
	assert.Equal(t, 5.0, h.sched.WaveConfig().SpawnInterval)
	assert.Len(t, h.sched.RemainingBosses(), 2)

	// Idle 状态下不会生成任何波次
	h.advance(30)
	assert.Empty(t, h.rec.waves)
	assert.Zero(t, h.totalRequested())
}

func TestSpawnScheduler_FirstWaveAfterOneInterval(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	h.signal(events.CountdownFinished, nil)
	assert.Equal(t, components.SchedulerWaveSpawning, h.sched.State())

	h.advance(5.0 - testTick)
	assert.Empty(t, h.rec.waves)

	h.step()
	require.Len(t, h.rec.waves, 1)
	assert.Equal(t, events.WaveStartingPayload{Wave: 1, Enemies: 3}, h.rec.waves[0])
	assert.Equal(t, 3, h.totalRequested())

	// 周期性：第二波在下一个间隔后
	h.advance(5.0)
	assert.Len(t, h.rec.waves, 2)
	assert.Equal(t, 6, h.totalRequested())
	assert.Equal(t, 2, h.sched.WavesDispatched())
}

// 间隔不是帧长整数倍时，越过的时间计入下一周期，波次数不随时间漂移
func TestSpawnScheduler_WaveIntervalCarriesOvershoot(t *testing.T) {
	cfg := scenarioConfig()
	cfg.SpawnInterval = 0.75
	h := newHarness(t, cfg, 1)
	h.signal(events.CountdownFinished, nil)

	// 0.5 秒一帧：到期时刻 1.0、1.5、2.5、3.0
	var firedAt []int
	for tick := 1; tick <= 6; tick++ {
		before := h.sched.WavesDispatched()
		h.sched.Update(0.5)
		h.bus.Flush()
		if h.sched.WavesDispatched() > before {
			firedAt = append(firedAt, tick)
		}
	}

	assert.Equal(t, []int{2, 3, 5, 6}, firedAt)
	assert.Equal(t, 4, h.sched.WavesDispatched())
}

func TestSpawnScheduler_OnlyNonZeroSpawnPointsAreCalled(t *testing.T) {
	cfg := scenarioConfig()
	cfg.SpawnPoints = []config.SpawnPointWeight{
		{ID: "top", Weight: 1.0},
		{ID: "bottom", Weight: 0.0},
	}
	h := newHarness(t, cfg, 1)
	h.signal(events.CountdownFinished, nil)
	h.advance(5.0)

	assert.Equal(t, []int{3}, h.top.requests)
	assert.Empty(t, h.bottom.requests)
}

// TestSpawnScheduler_WaveDistribution 多次试验后生成请求按 0.7/0.3 分布
func TestSpawnScheduler_WaveDistribution(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 99)
	h.signal(events.CountdownFinished, nil)

	const waves = 2000
	h.advance(5.0 * waves)

	require.Len(t, h.rec.waves, waves)
	total := h.totalRequested()
	require.Equal(t, 3*waves, total)
	assert.InDelta(t, 0.7, float64(h.top.total())/float64(total), 0.02)
	assert.InDelta(t, 0.3, float64(h.bottom.total())/float64(total), 0.02)
}

// TestSpawnScheduler_PlayerDiedCancelsWaveTimer 玩家死亡后不再触发 wave-starting
func TestSpawnScheduler_PlayerDiedCancelsWaveTimer(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	h.sched.SetVerbose(true)
	h.signal(events.CountdownFinished, nil)
	h.advance(3.0)

	h.signal(events.PlayerDied, nil)
	assert.Equal(t, components.SchedulerIdle, h.sched.State())
	assert.Zero(t, h.sched.WaveCountdown())

	h.advance(20.0)
	assert.Empty(t, h.rec.waves)
	assert.Zero(t, h.totalRequested())

	// 倒计时结束后重新开始
	h.signal(events.CountdownFinished, nil)
	h.advance(5.0)
	assert.Len(t, h.rec.waves, 1)
}

func TestSpawnScheduler_PlayerDiedDuringBossWarningCancelsRelease(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	h.toBossActive()

	h.signal(events.PlayerDied, nil)
	h.advance(10)

	assert.Equal(t, components.SchedulerIdle, h.sched.State())
	assert.Empty(t, h.boss.spawned)
	assert.Empty(t, h.sched.ActiveBoss())
}

func TestSpawnScheduler_BossDistanceWaitsForEnemiesCleared(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	h.signal(events.CountdownFinished, nil)
	h.advance(5.0)
	require.Len(t, h.rec.waves, 1)

	h.advance(2.0)
	h.signal(events.BossDistanceReached, nil)
	assert.Equal(t, components.SchedulerBossPending, h.sched.State())
	assert.True(t, h.sched.BossPending())

	// 敌人未清空：不生成波次，也不选择首领
	h.advance(20.0)
	assert.Len(t, h.rec.waves, 1)
	assert.Empty(t, h.rec.bosses)

	// 轮询到敌人清空
	h.pop.cleared = true
	h.step()
	assert.Equal(t, components.SchedulerBossActive, h.sched.State())
	assert.False(t, h.sched.BossPending())
	require.Len(t, h.rec.bosses, 1)
}

func TestSpawnScheduler_EnemyPopulationEmptySignal(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	h.signal(events.CountdownFinished, nil)
	h.signal(events.BossDistanceReached, nil)
	require.Equal(t, components.SchedulerBossPending, h.sched.State())

	// 推送信号，无需等待下一次轮询
	h.signal(events.EnemyPopulationEmpty, nil)
	assert.Equal(t, components.SchedulerBossActive, h.sched.State())
	assert.Len(t, h.rec.bosses, 1)
}

func TestSpawnScheduler_BossStartsImmediatelyWhenFieldAlreadyEmpty(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	h.pop.cleared = true
	h.signal(events.CountdownFinished, nil)
	h.signal(events.BossDistanceReached, nil)

	assert.Equal(t, components.SchedulerBossActive, h.sched.State())
	assert.NotEmpty(t, h.sched.ActiveBoss())
}

func TestSpawnScheduler_BossReleasedAfterWarningDelay(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	boss := h.toBossActive()
	assert.Equal(t, []string{boss}, h.rec.bosses)

	h.advance(2.0 - testTick)
	assert.Empty(t, h.boss.spawned)

	h.step()
	assert.Equal(t, []string{boss}, h.boss.spawned)
	assert.Equal(t, components.SchedulerBossActive, h.sched.State())
}

func TestSpawnScheduler_BossDiedAppliesDifficultyAndSpeed(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	boss := h.toBossReleased()

	h.signal(events.BossDied, events.BossDiedPayload{BossID: boss, Value: 100})
	assert.Equal(t, components.SchedulerPostBossRecovery, h.sched.State())
	assert.Equal(t, 4.0, h.sched.WaveConfig().SpawnInterval)
	assert.Equal(t, 1, h.sched.WaveConfig().ReductionsApplied)
	assert.InDelta(t, 0.1, h.top.modifier, 1e-9)
	assert.InDelta(t, 0.1, h.bottom.modifier, 1e-9)
	assert.Equal(t, 1, h.sched.BossesDefeated())

	// 恢复延迟后继续波次
	h.advance(2.0 - testTick)
	assert.Equal(t, components.SchedulerPostBossRecovery, h.sched.State())
	h.step()
	assert.Equal(t, components.SchedulerWaveSpawning, h.sched.State())
	assert.InDelta(t, 4.0, h.sched.WaveCountdown(), 1e-9)
}

func TestSpawnScheduler_OutOfOrderSignalsAreIgnored(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)

	// Idle 下的乱序信号
	h.signal(events.BossDied, events.BossDiedPayload{BossID: "Behemoth"})
	h.signal(events.BossDistanceReached, nil)
	h.signal(events.PlayerDied, nil)
	assert.Equal(t, components.SchedulerIdle, h.sched.State())

	// WaveSpawning 下重复的 countdown-finished 不重置计时
	h.signal(events.CountdownFinished, nil)
	h.advance(3.0)
	h.signal(events.CountdownFinished, nil)
	h.signal(events.BossDied, events.BossDiedPayload{BossID: "Behemoth"})
	h.advance(2.0)
	assert.Len(t, h.rec.waves, 1)
	assert.Equal(t, components.SchedulerWaveSpawning, h.sched.State())
	assert.Equal(t, 5.0, h.sched.WaveConfig().SpawnInterval)
}

func TestSpawnScheduler_BossDiedBeforeReleaseIsIgnored(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	boss := h.toBossActive()

	h.signal(events.BossDied, events.BossDiedPayload{BossID: boss})
	assert.Equal(t, components.SchedulerBossActive, h.sched.State())
	assert.Equal(t, 5.0, h.sched.WaveConfig().SpawnInterval)
}

func TestSpawnScheduler_BossDiedForOtherBossIsIgnored(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	boss := h.toBossReleased()

	h.signal(events.BossDied, events.BossDiedPayload{BossID: boss + "-impostor"})
	assert.Equal(t, components.SchedulerBossActive, h.sched.State())

	// 空 ID 视为当前首领
	h.signal(events.BossDied, events.BossDiedPayload{})
	assert.Equal(t, components.SchedulerPostBossRecovery, h.sched.State())
}

func TestSpawnScheduler_BossRotationAcrossEncounters(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 11)

	h.signal(events.CountdownFinished, nil)
	h.pop.cleared = true
	for i := 0; i < 3; i++ {
		h.signal(events.BossDistanceReached, nil)
		require.Equal(t, components.SchedulerBossActive, h.sched.State())
		h.advance(2.0)
		h.signal(events.BossDied, events.BossDiedPayload{BossID: h.sched.ActiveBoss()})
		h.advance(2.0)
		require.Equal(t, components.SchedulerWaveSpawning, h.sched.State())
	}

	require.Len(t, h.rec.bosses, 3)
	assert.NotEqual(t, h.rec.bosses[0], h.rec.bosses[1], "no repeat within a rotation cycle")
	assert.Equal(t, h.rec.bosses, h.boss.spawned)

	// 第三次进入增长阶段：人数 4，间隔 5 + 4*0.5
	assert.Equal(t, 4, h.sched.WaveConfig().EnemiesPerWave)
	assert.InDelta(t, 7.0, h.sched.WaveConfig().SpawnInterval, 1e-9)
	assert.Equal(t, PhaseHeadcountGrowth, h.sched.DifficultyPhase())
	assert.InDelta(t, 0.3, h.top.modifier, 1e-9)
}

// TestSpawnScheduler_MissionRestartFromEveryState 任意状态重新开始都回到 Idle 与基础配置
func TestSpawnScheduler_MissionRestartFromEveryState(t *testing.T) {
	setups := map[string]func(h *schedulerHarness){
		"Idle": func(h *schedulerHarness) {},
		"WaveSpawning": func(h *schedulerHarness) {
			h.signal(events.CountdownFinished, nil)
			h.advance(7)
		},
		"BossPending": func(h *schedulerHarness) {
			h.signal(events.CountdownFinished, nil)
			h.signal(events.BossDistanceReached, nil)
		},
		"BossActive": func(h *schedulerHarness) {
			h.toBossActive()
		},
		"PostBossRecovery": func(h *schedulerHarness) {
			boss := h.toBossReleased()
			h.signal(events.BossDied, events.BossDiedPayload{BossID: boss})
		},
		"WaveSpawningAfterBoss": func(h *schedulerHarness) {
			boss := h.toBossReleased()
			h.signal(events.BossDied, events.BossDiedPayload{BossID: boss})
			h.advance(2)
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, scenarioConfig(), 5)
			base := h.sched.WaveConfig()

			setup(h)
			wavesBefore := len(h.rec.waves)
			spawnedBefore := len(h.boss.spawned)

			h.signal(events.MissionRestart, nil)

			assert.Equal(t, components.SchedulerIdle, h.sched.State())
			assert.Equal(t, base, h.sched.WaveConfig())
			assert.ElementsMatch(t, h.cfg.Bosses, h.sched.RemainingBosses())
			assert.False(t, h.sched.BossPending())
			assert.Empty(t, h.sched.ActiveBoss())
			assert.Zero(t, h.sched.WavesDispatched())
			assert.Zero(t, h.top.modifier)
			assert.Zero(t, h.bottom.modifier)

			// 所有计时器已取消
			h.pop.cleared = true
			h.advance(30)
			assert.Len(t, h.rec.waves, wavesBefore)
			assert.Len(t, h.boss.spawned, spawnedBefore)
			assert.Equal(t, components.SchedulerIdle, h.sched.State())
		})
	}
}

func TestSpawnScheduler_CloseUnsubscribes(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 1)
	for _, signal := range consumedSignals {
		assert.Equal(t, 1, h.bus.ListenerCount(signal), "signal %s", signal)
	}

	h.sched.Close()
	h.sched.Close()
	for _, signal := range consumedSignals {
		assert.Zero(t, h.bus.ListenerCount(signal), "signal %s", signal)
	}

	h.signal(events.CountdownFinished, nil)
	assert.Equal(t, components.SchedulerIdle, h.sched.State())
}

func TestSpawnScheduler_WeightDriftFallsBackToLastSpawnPoint(t *testing.T) {
	cfg := scenarioConfig()
	cfg.SpawnPoints = []config.SpawnPointWeight{
		{ID: "top", Weight: 0.0},
		{ID: "bottom", Weight: 0.0},
	}
	h := newHarness(t, cfg, 1)
	h.signal(events.CountdownFinished, nil)
	h.advance(5)

	assert.Empty(t, h.top.requests)
	assert.Equal(t, []int{3}, h.bottom.requests)
}

// TestSpawnScheduler_EndToEndScenario 完整流程：
// 倒计时 → 5 秒后生成 3 个敌人 → 波次中途到达首领距离 → 敌人清空 →
// 首领选定并在警告后出场 → 首领死亡，间隔变为 4 秒 → 恢复后按 4 秒间隔生成
func TestSpawnScheduler_EndToEndScenario(t *testing.T) {
	h := newHarness(t, scenarioConfig(), 2024)

	h.signal(events.CountdownFinished, nil)
	h.advance(5.0)
	require.Len(t, h.rec.waves, 1)
	assert.Equal(t, 3, h.totalRequested())

	h.advance(2.5)
	h.signal(events.BossDistanceReached, nil)
	h.advance(10.0)
	assert.Len(t, h.rec.waves, 1, "waves cancelled after boss distance")
	assert.Equal(t, 3, h.totalRequested())

	h.pop.cleared = true
	h.signal(events.EnemyPopulationEmpty, nil)
	require.Len(t, h.rec.bosses, 1)
	boss := h.rec.bosses[0]
	assert.Empty(t, h.boss.spawned)

	h.advance(2.0)
	assert.Equal(t, []string{boss}, h.boss.spawned)

	h.signal(events.BossDied, events.BossDiedPayload{BossID: boss, Value: 250})
	assert.Equal(t, 4.0, h.sched.WaveConfig().SpawnInterval)

	h.advance(2.0)
	require.Equal(t, components.SchedulerWaveSpawning, h.sched.State())

	h.advance(4.0 - testTick)
	assert.Len(t, h.rec.waves, 1)
	h.step()
	require.Len(t, h.rec.waves, 2)
	assert.Equal(t, 6, h.totalRequested())

	h.advance(4.0)
	assert.Len(t, h.rec.waves, 3)
}
