package game

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"github.com/decker502/wavebreak/pkg/events"
)

// RunRecord 单次任务记录
type RunRecord struct {
	RunID          string    `yaml:"runID"`
	StartedAt      time.Time `yaml:"startedAt"`
	WavesSurvived  int       `yaml:"wavesSurvived"`
	BossesDefeated int       `yaml:"bossesDefeated"`
	Bosses         []string  `yaml:"bosses"` // 按击败顺序
	Value          float64   `yaml:"value"`  // 首领奖励累计
}

// betterThan 比较两次任务：先比首领数，再比奖励，最后比波次
func (r *RunRecord) betterThan(other *RunRecord) bool {
	if other == nil {
		return true
	}
	if r.BossesDefeated != other.BossesDefeated {
		return r.BossesDefeated > other.BossesDefeated
	}
	if r.Value != other.Value {
		return r.Value > other.Value
	}
	return r.WavesSurvived > other.WavesSurvived
}

// ProgressData 持久化的进度数据
type ProgressData struct {
	BestRun             *RunRecord `yaml:"bestRun"`
	TotalRuns           int        `yaml:"totalRuns"`
	TotalBossesDefeated int        `yaml:"totalBossesDefeated"`
}

// ProgressManager 任务进度管理器
// 通过事件总线记录每次任务的波次与首领，任务结束时更新最佳记录并保存
type ProgressManager struct {
	gdataManager *gdata.Manager // gdata 跨平台存储管理器，可为 nil（降级模式）
	data         *ProgressData
	current      *RunRecord
	finished     bool
}

// 存储路径常量
const (
	progressObject   = "progress"
	progressProperty = "runs"
)

// progressSignals ProgressManager 订阅的信号
var progressSignals = []events.SignalType{
	events.MissionRestart,
	events.WaveStarting,
	events.BossDied,
	events.PlayerDied,
}

// NewProgressManager 创建进度管理器
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存记录）
//
// 返回：
//   - *ProgressManager: 进度管理器实例
//   - error: 始终为 nil，加载失败只记录警告
func NewProgressManager(gdataManager *gdata.Manager) (*ProgressManager, error) {
	pm := &ProgressManager{
		gdataManager: gdataManager,
		data:         &ProgressData{},
	}

	if err := pm.Load(); err != nil {
		// 加载失败不是致命错误，从空记录开始
		log.Printf("[ProgressManager] Warning: Failed to load progress: %v (starting fresh)", err)
	}

	return pm, nil
}

// Load 从 gdata 加载进度
func (pm *ProgressManager) Load() error {
	if pm.gdataManager == nil {
		pm.data = &ProgressData{}
		return nil
	}

	if !pm.gdataManager.ObjectPropExists(progressObject, progressProperty) {
		pm.data = &ProgressData{}
		return nil
	}

	raw, err := pm.gdataManager.LoadObjectProp(progressObject, progressProperty)
	if err != nil {
		pm.data = &ProgressData{}
		return fmt.Errorf("failed to load progress: %w", err)
	}

	var loaded ProgressData
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		pm.data = &ProgressData{}
		return fmt.Errorf("failed to unmarshal progress: %w", err)
	}

	pm.data = &loaded
	log.Printf("[ProgressManager] Progress loaded: %d runs, %d bosses defeated",
		loaded.TotalRuns, loaded.TotalBossesDefeated)
	return nil
}

// Save 保存进度到 gdata
// gdataManager 为 nil 时不报错
func (pm *ProgressManager) Save() error {
	if pm.gdataManager == nil {
		return nil
	}

	raw, err := yaml.Marshal(pm.data)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	if err := pm.gdataManager.SaveObjectProp(progressObject, progressProperty, raw); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}

	log.Printf("[ProgressManager] Progress saved")
	return nil
}

// Attach 在事件总线上订阅任务相关信号
func (pm *ProgressManager) Attach(bus events.EventBus) {
	for _, signal := range progressSignals {
		bus.Subscribe(signal, pm)
	}
}

// Detach 取消订阅
func (pm *ProgressManager) Detach(bus events.EventBus) {
	for _, signal := range progressSignals {
		bus.Unsubscribe(signal, pm)
	}
}

// OnEvent 处理任务信号
func (pm *ProgressManager) OnEvent(event events.Event) {
	switch event.Type {
	case events.MissionRestart:
		if pm.current != nil && !pm.finished {
			pm.finishAndSave()
		}
		pm.StartRun()

	case events.WaveStarting:
		if run := pm.activeRun(); run != nil {
			run.WavesSurvived++
		}

	case events.BossDied:
		payload, _ := event.Payload.(events.BossDiedPayload)
		if run := pm.activeRun(); run != nil {
			run.BossesDefeated++
			run.Value += payload.Value
			if payload.BossID != "" {
				run.Bosses = append(run.Bosses, payload.BossID)
			}
		}

	case events.PlayerDied:
		if pm.activeRun() != nil {
			pm.finishAndSave()
		}
	}
}

// StartRun 开始新的任务记录
//
// 返回：
//   - string: 新任务的 ID
func (pm *ProgressManager) StartRun() string {
	pm.current = &RunRecord{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	pm.finished = false
	log.Printf("[ProgressManager] Run %s started", pm.current.RunID)
	return pm.current.RunID
}

// FinishRun 结束当前任务并更新统计
//
// 返回：
//   - bool: 当前任务是否成为新的最佳记录
func (pm *ProgressManager) FinishRun() bool {
	run := pm.activeRun()
	if run == nil {
		return false
	}
	pm.finished = true

	pm.data.TotalRuns++
	pm.data.TotalBossesDefeated += run.BossesDefeated

	if run.betterThan(pm.data.BestRun) {
		best := *run
		best.Bosses = append([]string(nil), run.Bosses...)
		pm.data.BestRun = &best
		log.Printf("[ProgressManager] Run %s is the new best: %d bosses, value %.0f, %d waves",
			run.RunID, run.BossesDefeated, run.Value, run.WavesSurvived)
		return true
	}

	log.Printf("[ProgressManager] Run %s finished: %d bosses, value %.0f, %d waves",
		run.RunID, run.BossesDefeated, run.Value, run.WavesSurvived)
	return false
}

func (pm *ProgressManager) finishAndSave() {
	pm.FinishRun()
	if err := pm.Save(); err != nil {
		log.Printf("[ProgressManager] Warning: %v", err)
	}
}

// activeRun 返回未结束的当前任务
func (pm *ProgressManager) activeRun() *RunRecord {
	if pm.current == nil || pm.finished {
		return nil
	}
	return pm.current
}

// CurrentRun 返回当前任务记录（可能已结束），没有任务时为 nil
func (pm *ProgressManager) CurrentRun() *RunRecord {
	return pm.current
}

// GetProgress 返回持久化进度数据
func (pm *ProgressManager) GetProgress() *ProgressData {
	return pm.data
}
