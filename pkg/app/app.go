// Package app 提供桌面端调度查看器
//
// App 实现 ebiten.Game：每个 tick 推进模拟世界，并以调试文字与简单图形
// 显示调度器状态、波次配置、生成点计数与场上实体。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/wavebreak/internal/sim"
	"github.com/decker502/wavebreak/pkg/components"
	"github.com/decker502/wavebreak/pkg/config"
	"github.com/decker502/wavebreak/pkg/ecs"
	"github.com/decker502/wavebreak/pkg/embedded"
	"github.com/decker502/wavebreak/pkg/events"
	"github.com/decker502/wavebreak/pkg/game"
)

// 窗口尺寸
const (
	WindowWidth  = 800
	WindowHeight = 600
)

// 航道绘制区域
const (
	laneLeft   = 40
	laneRight  = 700
	laneTop    = 200
	laneHeight = 60
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// SchedulerConfigPath 调度配置文件
	SchedulerConfigPath string
	// SimulationConfigPath 模拟配置文件，为空时使用默认值
	SimulationConfigPath string
	// Seed 覆盖配置中的随机种子（0 表示不覆盖）
	Seed int64
	// AppName gdata 存储名，为空时不保存进度
	AppName string
}

// App 是查看器的核心包装器，实现 ebiten.Game 接口
type App struct {
	world    *sim.World
	progress *game.ProgressManager
	simCfg   *config.SimulationConfig
	verbose  bool

	paused      bool
	fastForward bool

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 加载配置、创建模拟世界并开始第一次任务
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	schedCfg, err := loadSchedulerConfig(cfg.SchedulerConfigPath)
	if err != nil {
		return nil, fmt.Errorf("调度配置加载失败: %w", err)
	}
	if cfg.Seed != 0 {
		schedCfg.Seed = cfg.Seed
	}

	simCfg := config.DefaultSimulationConfig()
	if cfg.SimulationConfigPath != "" {
		simCfg, err = loadSimulationConfig(cfg.SimulationConfigPath)
		if err != nil {
			return nil, fmt.Errorf("模拟配置加载失败: %w", err)
		}
	}

	var rng *rand.Rand
	if schedCfg.Seed != 0 {
		rng = rand.New(rand.NewSource(schedCfg.Seed))
	}

	world, err := sim.NewWorld(schedCfg, simCfg, sim.Options{Rand: rng})
	if err != nil {
		return nil, err
	}
	world.Scheduler().SetVerbose(cfg.Verbose)

	// 进度存储不可用时降级为仅内存记录
	var gdataManager *gdata.Manager
	if cfg.AppName != "" {
		gdataManager, err = gdata.Open(gdata.Config{AppName: cfg.AppName})
		if err != nil {
			log.Printf("[App] Warning: progress storage unavailable: %v", err)
			gdataManager = nil
		}
	}
	progress, _ := game.NewProgressManager(gdataManager)
	progress.Attach(world.Bus())

	world.Start()
	log.Printf("[App] Viewer started with %d spawn points", len(schedCfg.SpawnPoints))

	return &App{
		world:    world,
		progress: progress,
		simCfg:   simCfg,
		verbose:  cfg.Verbose,
	}, nil
}

// Update 更新模拟
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(WindowWidth, WindowHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.paused = !a.paused
		log.Printf("[App] Paused: %v", a.paused)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		a.fastForward = !a.fastForward
	}
	// R 手动重新开始任务
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.world.Bus().Publish(events.Event{Type: events.MissionRestart})
	}

	if a.paused {
		return nil
	}

	steps := 1
	if a.fastForward {
		steps = 4
	}
	deltaTime := 1.0 / float64(ebiten.TPS())
	for i := 0; i < steps; i++ {
		a.world.Update(deltaTime)
	}
	return nil
}

// Draw 绘制状态文字与航道
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 16, G: 20, B: 36, A: 255})

	snap := a.world.Snapshot()
	for i, line := range StatusLines(snap, a.progress.CurrentRun(), a.progress.GetProgress()) {
		ebitenutil.DebugPrintAt(screen, line, 10, 10+i*16)
	}

	a.drawLanes(screen, snap)

	help := "Space: pause  Tab: x4  R: restart  F11: fullscreen"
	if a.paused {
		help = "[PAUSED] " + help
	}
	ebitenutil.DebugPrintAt(screen, help, 10, WindowHeight-20)
}

// drawLanes 每个生成点一条航道，敌人按前进距离画在航道上
func (a *App) drawLanes(screen *ebiten.Image, snap sim.Snapshot) {
	laneIndex := make(map[string]int, len(snap.SpawnPoints))
	for i, sp := range snap.SpawnPoints {
		laneIndex[sp.ID] = i
		y := float32(laneTop + i*laneHeight)
		vector.StrokeLine(screen, laneLeft, y+laneHeight/2, laneRight, y+laneHeight/2, 1, color.RGBA{R: 60, G: 70, B: 100, A: 255}, true)
		ebitenutil.DebugPrintAt(screen, sp.ID, 4, int(y)+laneHeight/2-8)
	}

	em := a.world.Entities()
	for _, id := range ecs.GetEntitiesWith1[*components.EnemyComponent](em) {
		enemy, _ := ecs.GetComponent[*components.EnemyComponent](em, id)
		x := laneLeft + float32(enemy.Progress/a.simCfg.LaneLength)*(laneRight-laneLeft)
		y := float32(laneTop+laneIndex[enemy.SpawnPointID]*laneHeight) + laneHeight/2
		vector.DrawFilledRect(screen, x-4, y-4, 8, 8, color.RGBA{R: 230, G: 90, B: 70, A: 255}, true)
	}

	bottom := float32(laneTop + len(snap.SpawnPoints)*laneHeight + 20)
	for _, id := range ecs.GetEntitiesWith1[*components.BossComponent](em) {
		boss, _ := ecs.GetComponent[*components.BossComponent](em, id)
		health, ok := ecs.GetComponent[*components.HealthComponent](em, id)
		ratio := float32(1)
		if ok && health.MaxHealth > 0 {
			ratio = float32(health.CurrentHealth / health.MaxHealth)
		}
		vector.DrawFilledRect(screen, laneLeft, bottom, (laneRight-laneLeft)*ratio, 12, color.RGBA{R: 200, G: 60, B: 200, A: 255}, true)
		ebitenutil.DebugPrintAt(screen, boss.BossID, laneLeft, int(bottom)+14)
	}

	// 玩家血条
	playerRatio := float32(0)
	if snap.PlayerMaxHealth > 0 {
		playerRatio = float32(snap.PlayerHealth / snap.PlayerMaxHealth)
	}
	vector.DrawFilledRect(screen, laneRight+20, laneTop, 16, float32(len(snap.SpawnPoints)*laneHeight)*playerRatio, color.RGBA{R: 80, G: 200, B: 120, A: 255}, true)
}

// Layout 返回逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return WindowWidth, WindowHeight
}

// loadSchedulerConfig 读取磁盘配置，不存在时使用内置版本
func loadSchedulerConfig(path string) (*config.SchedulerConfig, error) {
	data, fromEmbedded, err := embedded.ReadFileOrEmbedded(path)
	if err != nil {
		return nil, err
	}
	if fromEmbedded {
		log.Printf("[App] Using embedded %s", path)
	}
	return config.ParseSchedulerConfig(data)
}

func loadSimulationConfig(path string) (*config.SimulationConfig, error) {
	data, fromEmbedded, err := embedded.ReadFileOrEmbedded(path)
	if err != nil {
		return nil, err
	}
	if fromEmbedded {
		log.Printf("[App] Using embedded %s", path)
	}
	return config.ParseSimulationConfig(data)
}

// Close 结束当前任务记录并保存进度
func (a *App) Close() {
	a.progress.Detach(a.world.Bus())
	a.progress.FinishRun()
	if err := a.progress.Save(); err != nil {
		log.Printf("[App] Warning: %v", err)
	}
	a.world.Close()
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
