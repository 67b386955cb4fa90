package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/wavebreak/pkg/app"
	"github.com/decker502/wavebreak/pkg/embedded"
)

var (
	verbose       = flag.Bool("verbose", false, "显示详细调试信息")
	configPath    = flag.String("config", "data/scheduler.yaml", "调度配置文件路径")
	simConfigPath = flag.String("sim-config", "data/simulation.yaml", "模拟配置文件路径")
	seed          = flag.Int64("seed", 0, "随机种子（0 使用配置文件中的值）")
	noSave        = flag.Bool("no-save", false, "不保存任务进度")
)

func main() {
	flag.Parse()

	// 磁盘上缺少配置文件时回退到内置版本
	embedded.Init(dataFS)

	appName := "wavebreak"
	if *noSave {
		appName = ""
	}

	viewer, err := app.NewApp(app.Config{
		Verbose:              *verbose,
		SchedulerConfigPath:  *configPath,
		SimulationConfigPath: *simConfigPath,
		Seed:                 *seed,
		AppName:              appName,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	defer viewer.Close()

	ebiten.SetWindowSize(app.WindowWidth, app.WindowHeight)
	ebiten.SetWindowTitle("Wavebreak - 波次与首领调度")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(viewer); err != nil {
		log.Printf("Game exited with error: %v", err)
	}
}
