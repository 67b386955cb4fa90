package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSchedulerConfig(t *testing.T) {
	tests := []struct {
		name        string
		yamlContent string
		wantErr     bool
		errContains string
		validate    func(*testing.T, *SchedulerConfig)
	}{
		{
			name: "valid config",
			yamlContent: `
spawnPoints:
  - id: top
    weight: 0.7
  - id: bottom
    weight: 0.3
enemiesPerWave: 3
spawnInterval: 5
intervalReductionStep: 1
maxReductions: 2
offsetPerEnemy: 0.5
bosses: [Robodactyl, Behemoth]
bossWarningDelay: 2
recoveryDelay: 3
speedModifierStep: 0.1
seed: 42
`,
			validate: func(t *testing.T, cfg *SchedulerConfig) {
				if len(cfg.SpawnPoints) != 2 {
					t.Fatalf("expected 2 spawn points, got %d", len(cfg.SpawnPoints))
				}
				if cfg.SpawnPoints[0].ID != "top" || cfg.SpawnPoints[0].Weight != 0.7 {
					t.Errorf("unexpected first spawn point: %+v", cfg.SpawnPoints[0])
				}
				if cfg.EnemiesPerWave != 3 {
					t.Errorf("expected enemiesPerWave = 3, got %d", cfg.EnemiesPerWave)
				}
				if cfg.RecoveryDelay != 3 {
					t.Errorf("expected recoveryDelay = 3, got %v", cfg.RecoveryDelay)
				}
				if cfg.Seed != 42 {
					t.Errorf("expected seed = 42, got %d", cfg.Seed)
				}
			},
		},
		{
			name: "missing fields use defaults",
			yamlContent: `
spawnPoints:
  - id: only
    weight: 1.0
`,
			validate: func(t *testing.T, cfg *SchedulerConfig) {
				def := DefaultSchedulerConfig()
				if cfg.SpawnInterval != def.SpawnInterval {
					t.Errorf("expected default spawnInterval %v, got %v", def.SpawnInterval, cfg.SpawnInterval)
				}
				if len(cfg.Bosses) != len(def.Bosses) {
					t.Errorf("expected %d default bosses, got %d", len(def.Bosses), len(cfg.Bosses))
				}
			},
		},
		{
			name: "weights drift",
			yamlContent: `
spawnPoints:
  - id: top
    weight: 0.7
  - id: bottom
    weight: 0.2
`,
			wantErr:     true,
			errContains: "do not sum to 1.0",
		},
		{
			name: "negative weight",
			yamlContent: `
spawnPoints:
  - id: top
    weight: 1.2
  - id: bottom
    weight: -0.2
`,
			wantErr:     true,
			errContains: "weight must be >= 0",
		},
		{
			name: "duplicate spawn point",
			yamlContent: `
spawnPoints:
  - id: top
    weight: 0.5
  - id: top
    weight: 0.5
`,
			wantErr:     true,
			errContains: "duplicate spawn point",
		},
		{
			name: "interval reduced to zero",
			yamlContent: `
spawnInterval: 2
intervalReductionStep: 1
maxReductions: 2
`,
			wantErr:     true,
			errContains: "non-positive interval",
		},
		{
			name: "empty bosses",
			yamlContent: `
bosses: []
`,
			wantErr:     true,
			errContains: "bosses cannot be empty",
		},
		{
			name:        "invalid yaml",
			yamlContent: "spawnPoints: [",
			wantErr:     true,
			errContains: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpFile := filepath.Join(t.TempDir(), "scheduler.yaml")
			if err := os.WriteFile(tmpFile, []byte(tt.yamlContent), 0644); err != nil {
				t.Fatalf("failed to write temp file: %v", err)
			}

			cfg, err := LoadSchedulerConfig(tmpFile)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadSchedulerConfig_FileNotFound(t *testing.T) {
	_, err := LoadSchedulerConfig("nonexistent.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaultSchedulerConfigIsValid(t *testing.T) {
	if err := ValidateSchedulerConfig(DefaultSchedulerConfig()); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

// TestValidateSpawnWeights 权重总和校验
func TestValidateSpawnWeights(t *testing.T) {
	tests := []struct {
		name      string
		weights   []SpawnPointWeight
		wantTotal float64
		wantOK    bool
	}{
		{"exact", []SpawnPointWeight{{"a", 0.7}, {"b", 0.3}}, 1.0, true},
		{"within tolerance", []SpawnPointWeight{{"a", 0.3333}, {"b", 0.3333}, {"c", 0.3333}}, 0.9999, true},
		{"under", []SpawnPointWeight{{"a", 0.5}, {"b", 0.4}}, 0.9, false},
		{"over", []SpawnPointWeight{{"a", 0.8}, {"b", 0.4}}, 1.2, false},
		{"empty", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := ValidateSpawnWeights(tt.weights)
			if diff := report.Total - tt.wantTotal; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Total = %v, want %v", report.Total, tt.wantTotal)
			}
			if report.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v", report.OK, tt.wantOK)
			}
			if tt.wantOK && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantOK && !errors.Is(err, ErrWeightDrift) {
				t.Errorf("expected ErrWeightDrift, got %v", err)
			}
		})
	}
}
