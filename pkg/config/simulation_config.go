package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SimulationConfig 模拟世界配置
//
// 模拟世界代替渲染、物理等外部协作者，为调度器提供生成点、敌人数量、
// 航行距离与倒计时信号。距离单位为任意长度单位，时间单位为秒。
type SimulationConfig struct {
	CountdownDuration float64 `yaml:"countdownDuration"` // 任务开始到 countdown-finished 的时长
	BossDistance      float64 `yaml:"bossDistance"`      // 每段多少距离触发一次首领
	ScrollSpeed       float64 `yaml:"scrollSpeed"`       // 玩家航行速度（只在波次阶段累计）
	RestartDelay      float64 `yaml:"restartDelay"`      // 玩家死亡后多久重新开始任务

	SpawnStagger float64 `yaml:"spawnStagger"` // 同一生成点逐个释放敌人的间隔
	LaneLength   float64 `yaml:"laneLength"`   // 敌人到达玩家前的航道长度
	EnemySpeed   float64 `yaml:"enemySpeed"`   // 敌人基础速度
	EnemyHealth  float64 `yaml:"enemyHealth"`  // 敌人生命值
	EnemyDamage  float64 `yaml:"enemyDamage"`  // 敌人撞击玩家造成的伤害

	PlayerHealth float64 `yaml:"playerHealth"` // 玩家生命值
	PlayerDPS    float64 `yaml:"playerDPS"`    // 玩家每秒输出

	BossHealth  float64            `yaml:"bossHealth"`  // 首领默认生命值
	BossValue   float64            `yaml:"bossValue"`   // 首领默认奖励
	BossHealths map[string]float64 `yaml:"bossHealths"` // 按首领覆盖生命值
}

// DefaultSimulationConfig 返回默认模拟配置
func DefaultSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		CountdownDuration: 3.0,
		BossDistance:      300.0,
		ScrollSpeed:       10.0,
		RestartDelay:      3.0,
		SpawnStagger:      0.3,
		LaneLength:        100.0,
		EnemySpeed:        12.0,
		EnemyHealth:       10.0,
		EnemyDamage:       1.0,
		PlayerHealth:      5.0,
		PlayerDPS:         12.0,
		BossHealth:        120.0,
		BossValue:         100.0,
	}
}

// LoadSimulationConfig 从 YAML 文件加载模拟配置
func LoadSimulationConfig(filePath string) (*SimulationConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulation config file: %w", err)
	}

	return ParseSimulationConfig(data)
}

// ParseSimulationConfig 解析 YAML 数据并校验
func ParseSimulationConfig(data []byte) (*SimulationConfig, error) {
	config := DefaultSimulationConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config YAML: %w", err)
	}

	if err := validateSimulationConfig(config); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	return config, nil
}

// BossHealthFor 返回指定首领的生命值
func (c *SimulationConfig) BossHealthFor(bossID string) float64 {
	if hp, ok := c.BossHealths[bossID]; ok {
		return hp
	}
	return c.BossHealth
}

// validateSimulationConfig 验证配置的有效性
func validateSimulationConfig(config *SimulationConfig) error {
	positive := map[string]float64{
		"bossDistance": config.BossDistance,
		"scrollSpeed":  config.ScrollSpeed,
		"laneLength":   config.LaneLength,
		"enemySpeed":   config.EnemySpeed,
		"enemyHealth":  config.EnemyHealth,
		"playerHealth": config.PlayerHealth,
		"bossHealth":   config.BossHealth,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", name, value)
		}
	}

	nonNegative := map[string]float64{
		"countdownDuration": config.CountdownDuration,
		"restartDelay":      config.RestartDelay,
		"spawnStagger":      config.SpawnStagger,
		"enemyDamage":       config.EnemyDamage,
		"playerDPS":         config.PlayerDPS,
		"bossValue":         config.BossValue,
	}
	for name, value := range nonNegative {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", name, value)
		}
	}

	for boss, hp := range config.BossHealths {
		if hp <= 0 {
			return fmt.Errorf("bossHealths[%s] must be > 0, got %v", boss, hp)
		}
	}

	return nil
}
