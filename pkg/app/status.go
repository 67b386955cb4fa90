package app

import (
	"fmt"
	"strings"

	"github.com/decker502/wavebreak/internal/sim"
	"github.com/decker502/wavebreak/pkg/components"
	"github.com/decker502/wavebreak/pkg/game"
)

// StatusLines 把快照格式化为调试文字
// run、progress 可为 nil
func StatusLines(snap sim.Snapshot, run *game.RunRecord, progress *game.ProgressData) []string {
	lines := []string{
		fmt.Sprintf("Mission #%d  t=%.1fs  state=%s", snap.Missions, snap.Elapsed, snap.State),
		fmt.Sprintf("Wave %d: %d enemies every %.2fs (phase %s)",
			snap.WavesDispatched, snap.Wave.EnemiesPerWave, snap.Wave.SpawnInterval, snap.Phase),
	}

	switch snap.State {
	case components.SchedulerWaveSpawning:
		lines = append(lines, fmt.Sprintf("Next wave in %.1fs  distance %.0f/%.0f",
			snap.WaveCountdown, snap.Distance, snap.BossDistance))
	case components.SchedulerBossPending:
		lines = append(lines, fmt.Sprintf("Boss incoming, clearing %d enemies", snap.Enemies))
	case components.SchedulerBossActive:
		lines = append(lines, fmt.Sprintf("BOSS: %s", snap.ActiveBoss))
	default:
		lines = append(lines, "")
	}

	points := make([]string, 0, len(snap.SpawnPoints))
	for _, sp := range snap.SpawnPoints {
		points = append(points, fmt.Sprintf("%s %d/%d +%.0f%%", sp.ID, sp.Released, sp.Pending, sp.SpeedModifier*100))
	}
	lines = append(lines,
		"Spawn points: "+strings.Join(points, "  "),
		fmt.Sprintf("Enemies %d  Bosses %d  Defeated %d  Player %.0f/%.0f",
			snap.Enemies, snap.Bosses, snap.BossesDefeated, snap.PlayerHealth, snap.PlayerMaxHealth),
	)

	if run != nil {
		lines = append(lines, fmt.Sprintf("Run %.8s  waves %d  bosses %d  value %.0f",
			run.RunID, run.WavesSurvived, run.BossesDefeated, run.Value))
	}
	if progress != nil && progress.BestRun != nil {
		lines = append(lines, fmt.Sprintf("Best: %d bosses  value %.0f  (%d runs)",
			progress.BestRun.BossesDefeated, progress.BestRun.Value, progress.TotalRuns))
	}
	return lines
}
