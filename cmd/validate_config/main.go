// validate_config 检查调度配置文件
//
// 用法：
//
//	go run ./cmd/validate_config [--config data/scheduler.yaml]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/decker502/wavebreak/pkg/config"
)

var configPath = flag.String("config", "data/scheduler.yaml", "调度配置文件路径")

func main() {
	flag.Parse()

	data, err := os.ReadFile(*configPath)
	if err != nil {
		fmt.Printf("❌ 读取文件失败: %v\n", err)
		os.Exit(1)
	}

	// 先按原样解析，以便在校验失败时仍能输出权重报告
	raw := config.DefaultSchedulerConfig()
	if err := yaml.Unmarshal(data, raw); err != nil {
		fmt.Printf("❌ YAML 解析失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ YAML 格式正确\n")

	fmt.Printf("生成点权重:\n")
	for _, sp := range raw.SpawnPoints {
		fmt.Printf("  %-12s %.4f\n", sp.ID, sp.Weight)
	}

	report, err := config.ValidateSpawnWeights(raw.SpawnPoints)
	switch {
	case errors.Is(err, config.ErrWeightDrift):
		fmt.Printf("❌ 权重总和 %.4f，偏差 %+.4f（容差 %.3f）\n", report.Total, report.Drift, config.WeightTolerance)
	default:
		fmt.Printf("✅ 权重总和 %.4f\n", report.Total)
	}

	if _, err := config.ParseSchedulerConfig(data); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ 首领数量: %d\n", len(raw.Bosses))
	fmt.Printf("✅ 每波 %d 个敌人，间隔 %.2fs（最多缩短 %d 次，每次 %.2fs）\n",
		raw.EnemiesPerWave, raw.SpawnInterval, raw.MaxReductions, raw.IntervalReductionStep)
}
