package systems

import (
	"github.com/decker502/wavebreak/pkg/config"
)

// SelectSpawnPoint 按累计权重选择生成点
//
// 返回第一个累计权重（前序权重之和加自身）大于 r 的生成点。
// 若没有满足条件的条目（边界舍入误差或权重总和小于 1），
// 固定回退到最后一个条目，保证总能选出生成点。
//
// 参数：
//   - weights: 有序的生成点权重表
//   - r: [0,1) 均匀随机数
//
// 返回：
//   - string: 选中的生成点 ID
//   - bool: 仅当 weights 为空时为 false
func SelectSpawnPoint(weights []config.SpawnPointWeight, r float64) (string, bool) {
	idx := SelectWeightedIndex(weights, r)
	if idx < 0 {
		return "", false
	}
	return weights[idx].ID, true
}

// SelectWeightedIndex 与 SelectSpawnPoint 相同，返回下标
// weights 为空时返回 -1
func SelectWeightedIndex(weights []config.SpawnPointWeight, r float64) int {
	if len(weights) == 0 {
		return -1
	}

	cumulative := 0.0
	for i, w := range weights {
		cumulative += w.Weight
		if r < cumulative {
			return i
		}
	}

	return len(weights) - 1
}
