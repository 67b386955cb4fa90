// wavesim 无界面运行模拟世界并输出调度过程
//
// 默认快进模拟时间；--realtime 按实际时钟运行，Ctrl+C 结束。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/wavebreak/internal/sim"
	"github.com/decker502/wavebreak/pkg/config"
	"github.com/decker502/wavebreak/pkg/events"
	"github.com/decker502/wavebreak/pkg/game"
)

var (
	configPath    = flag.String("config", "data/scheduler.yaml", "调度配置文件路径")
	simConfigPath = flag.String("sim-config", "data/simulation.yaml", "模拟配置文件路径")
	duration      = flag.Duration("duration", 5*time.Minute, "模拟时长")
	realtime      = flag.Bool("realtime", false, "按实际时钟运行")
	tickRate      = flag.Int("tps", sim.DefaultTickRate, "每秒更新次数")
	reportEvery   = flag.Float64("report-every", 10, "每隔多少模拟秒输出一次状态（0 关闭）")
	seed          = flag.Int64("seed", 0, "随机种子（0 使用配置文件中的值）")
	save          = flag.Bool("save", false, "保存任务进度")
	verbose       = flag.Bool("verbose", false, "显示详细调试信息")
)

func main() {
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wavesim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	schedCfg, err := config.LoadSchedulerConfig(*configPath)
	if err != nil {
		return err
	}
	if *seed != 0 {
		schedCfg.Seed = *seed
	}

	simCfg, err := config.LoadSimulationConfig(*simConfigPath)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if schedCfg.Seed != 0 {
		rng = rand.New(rand.NewSource(schedCfg.Seed))
	}

	world, err := sim.NewWorld(schedCfg, simCfg, sim.Options{Rand: rng})
	if err != nil {
		return err
	}
	defer world.Close()
	world.Scheduler().SetVerbose(*verbose)

	var gdataManager *gdata.Manager
	if *save {
		gdataManager, err = gdata.Open(gdata.Config{AppName: "wavebreak"})
		if err != nil {
			return fmt.Errorf("failed to open progress storage: %w", err)
		}
	}
	progress, _ := game.NewProgressManager(gdataManager)
	progress.Attach(world.Bus())
	defer progress.Detach(world.Bus())

	printer := &signalPrinter{}
	for _, t := range []events.SignalType{
		events.BossSelected, events.BossDied, events.PlayerDied, events.MissionRestart,
	} {
		world.Bus().Subscribe(t, printer)
	}

	runner := sim.NewRunner(world, *tickRate)
	nextReport := *reportEvery
	runner.OnTick = func(w *sim.World) {
		if *reportEvery <= 0 {
			return
		}
		snap := w.Snapshot()
		if snap.Elapsed+1e-9 >= nextReport {
			nextReport += *reportEvery
			printSnapshot(snap)
		}
	}

	world.Start()

	if *realtime {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, *duration)
		defer cancel()

		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	} else {
		runner.RunFor(duration.Seconds())
	}

	progress.FinishRun()
	if err := progress.Save(); err != nil {
		return err
	}

	printSummary(world.Snapshot(), progress.GetProgress())
	return nil
}

// signalPrinter 把关键信号输出到标准输出
type signalPrinter struct{}

func (p *signalPrinter) OnEvent(event events.Event) {
	switch payload := event.Payload.(type) {
	case events.BossSelectedPayload:
		fmt.Printf("  >> boss selected: %s\n", payload.BossID)
	case events.BossDiedPayload:
		fmt.Printf("  >> boss defeated: %s (+%.0f)\n", payload.BossID, payload.Value)
	default:
		fmt.Printf("  >> %s\n", event.Type)
	}
}

func printSnapshot(snap sim.Snapshot) {
	fmt.Printf("[%7.1fs] %-18s wave %3d  %d/wave every %.2fs  enemies %2d  player %.0f/%.0f\n",
		snap.Elapsed, snap.State, snap.WavesDispatched, snap.Wave.EnemiesPerWave, snap.Wave.SpawnInterval,
		snap.Enemies, snap.PlayerHealth, snap.PlayerMaxHealth)
}

func printSummary(snap sim.Snapshot, progress *game.ProgressData) {
	fmt.Printf("\n=== %.0fs simulated, %d mission(s) ===\n", snap.Elapsed, snap.Missions)
	for _, sp := range snap.SpawnPoints {
		fmt.Printf("  %-10s released %4d  speed +%.0f%%\n", sp.ID, sp.Released, sp.SpeedModifier*100)
	}
	if best := progress.BestRun; best != nil {
		fmt.Printf("  best run: %d bosses %v, value %.0f, %d waves\n",
			best.BossesDefeated, best.Bosses, best.Value, best.WavesSurvived)
	}
}
