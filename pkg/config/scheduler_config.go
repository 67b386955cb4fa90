package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// WeightTolerance 生成点权重总和允许的误差
const WeightTolerance = 0.001

// ErrWeightDrift 权重总和偏离 1.0 超出容差
var ErrWeightDrift = errors.New("spawn point weights do not sum to 1.0")

// SpawnPointWeight 生成点权重
// 运行时只读，由配置文件提供
type SpawnPointWeight struct {
	ID     string  `yaml:"id"`     // 生成点标识
	Weight float64 `yaml:"weight"` // 权重（非负）
}

// SchedulerConfig 波次与首领调度配置
//
// 所有时间单位为秒
type SchedulerConfig struct {
	SpawnPoints           []SpawnPointWeight `yaml:"spawnPoints"`           // 生成点权重表（顺序即选择顺序）
	EnemiesPerWave        int                `yaml:"enemiesPerWave"`        // 每波基础敌人数
	SpawnInterval         float64            `yaml:"spawnInterval"`         // 基础波次间隔
	IntervalReductionStep float64            `yaml:"intervalReductionStep"` // 每次击败首领缩短的间隔
	MaxReductions         int                `yaml:"maxReductions"`         // 间隔缩短次数上限
	OffsetPerEnemy        float64            `yaml:"offsetPerEnemy"`        // 人数增长阶段每个敌人增加的间隔
	Bosses                []string           `yaml:"bosses"`                // 首领目录
	BossWarningDelay      float64            `yaml:"bossWarningDelay"`      // 首领警告时长
	RecoveryDelay         float64            `yaml:"recoveryDelay"`         // 击败首领后恢复波次前的等待
	SpeedModifierStep     float64            `yaml:"speedModifierStep"`     // 每次击败首领生成点速度加成增量
	Seed                  int64              `yaml:"seed"`                  // 随机种子，0 表示按时间播种
}

// WeightReport 权重校验结果
type WeightReport struct {
	Total float64 // 权重总和
	Drift float64 // Total - 1.0
	OK    bool    // |Drift| <= WeightTolerance
}

// DefaultSchedulerConfig 返回默认调度配置
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		SpawnPoints: []SpawnPointWeight{
			{ID: "top", Weight: 0.5},
			{ID: "bottom", Weight: 0.5},
		},
		EnemiesPerWave:        3,
		SpawnInterval:         5.0,
		IntervalReductionStep: 1.0,
		MaxReductions:         2,
		OffsetPerEnemy:        0.5,
		Bosses:                []string{"Robodactyl", "Behemoth", "Battlecruiser", "CyberKraken"},
		BossWarningDelay:      2.0,
		RecoveryDelay:         2.0,
		SpeedModifierStep:     0.1,
	}
}

// LoadSchedulerConfig 从 YAML 文件加载调度配置
//
// 文件中缺省的字段沿用 DefaultSchedulerConfig 的值
func LoadSchedulerConfig(filePath string) (*SchedulerConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scheduler config file: %w", err)
	}

	return ParseSchedulerConfig(data)
}

// ParseSchedulerConfig 解析 YAML 数据并校验
func ParseSchedulerConfig(data []byte) (*SchedulerConfig, error) {
	config := DefaultSchedulerConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse scheduler config YAML: %w", err)
	}

	if err := ValidateSchedulerConfig(config); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}

	return config, nil
}

// ValidateSchedulerConfig 验证配置的有效性
func ValidateSchedulerConfig(config *SchedulerConfig) error {
	if config == nil {
		return fmt.Errorf("scheduler config is nil")
	}

	// 验证生成点
	if len(config.SpawnPoints) == 0 {
		return fmt.Errorf("spawnPoints cannot be empty")
	}
	seen := make(map[string]bool, len(config.SpawnPoints))
	for i, sp := range config.SpawnPoints {
		if sp.ID == "" {
			return fmt.Errorf("spawn point %d has empty id", i)
		}
		if seen[sp.ID] {
			return fmt.Errorf("duplicate spawn point id %q", sp.ID)
		}
		seen[sp.ID] = true
		if sp.Weight < 0 || math.IsNaN(sp.Weight) {
			return fmt.Errorf("spawn point %q weight must be >= 0, got %v", sp.ID, sp.Weight)
		}
	}

	if report, err := ValidateSpawnWeights(config.SpawnPoints); err != nil {
		return fmt.Errorf("%w: total=%.4f drift=%+.4f", err, report.Total, report.Drift)
	}

	// 验证波次参数
	if config.EnemiesPerWave < 1 {
		return fmt.Errorf("enemiesPerWave must be >= 1, got %d", config.EnemiesPerWave)
	}
	if config.SpawnInterval <= 0 {
		return fmt.Errorf("spawnInterval must be > 0, got %v", config.SpawnInterval)
	}
	if config.IntervalReductionStep < 0 {
		return fmt.Errorf("intervalReductionStep must be >= 0, got %v", config.IntervalReductionStep)
	}
	if config.MaxReductions < 0 {
		return fmt.Errorf("maxReductions must be >= 0, got %d", config.MaxReductions)
	}
	if config.OffsetPerEnemy < 0 {
		return fmt.Errorf("offsetPerEnemy must be >= 0, got %v", config.OffsetPerEnemy)
	}

	// 缩短阶段结束后间隔必须仍为正
	floor := config.SpawnInterval - float64(config.MaxReductions)*config.IntervalReductionStep
	if floor <= 0 {
		return fmt.Errorf("spawnInterval %.2f reduced %d times by %.2f leaves non-positive interval %.2f",
			config.SpawnInterval, config.MaxReductions, config.IntervalReductionStep, floor)
	}

	// 验证首领
	if len(config.Bosses) == 0 {
		return fmt.Errorf("bosses cannot be empty")
	}
	for i, boss := range config.Bosses {
		if boss == "" {
			return fmt.Errorf("boss %d has empty id", i)
		}
	}

	if config.BossWarningDelay < 0 {
		return fmt.Errorf("bossWarningDelay must be >= 0, got %v", config.BossWarningDelay)
	}
	if config.RecoveryDelay < 0 {
		return fmt.Errorf("recoveryDelay must be >= 0, got %v", config.RecoveryDelay)
	}
	if config.SpeedModifierStep < 0 {
		return fmt.Errorf("speedModifierStep must be >= 0, got %v", config.SpeedModifierStep)
	}

	return nil
}

// ValidateSpawnWeights 汇总权重并检查是否偏离 1.0
//
// 总是返回报告；偏离超出 WeightTolerance 时同时返回 ErrWeightDrift
func ValidateSpawnWeights(weights []SpawnPointWeight) (WeightReport, error) {
	total := 0.0
	for _, w := range weights {
		total += w.Weight
	}

	report := WeightReport{
		Total: total,
		Drift: total - 1.0,
	}
	report.OK = math.Abs(report.Drift) <= WeightTolerance

	if !report.OK {
		return report, ErrWeightDrift
	}
	return report, nil
}
