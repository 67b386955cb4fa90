package systems

import (
	"errors"
	"log"
	"math/rand"
)

// ErrEmptyBossCatalog 首领目录为空，无法选择
var ErrEmptyBossCatalog = errors.New("boss catalog is empty")

// BossRotation 首领轮换
//
// 维护本轮尚未出场的首领池。每次随机抽取一个并移出池子，
// 池子在抽取时为空则先从完整目录补满。一轮之内不会重复。
type BossRotation struct {
	catalog []string
	pool    []string
	rng     *rand.Rand
}

// NewBossRotation 创建首领轮换
//
// catalog 会被复制，之后对原切片的修改不影响轮换
func NewBossRotation(catalog []string, rng *rand.Rand) *BossRotation {
	r := &BossRotation{
		catalog: append([]string(nil), catalog...),
		rng:     rng,
	}
	r.Reset()
	return r
}

// Reset 将首领池恢复为完整目录
func (r *BossRotation) Reset() {
	r.pool = append(r.pool[:0], r.catalog...)
}

// SelectNext 抽取下一个首领
//
// 在整个池子范围内均匀抽取（含最后一个元素）。池子只剩一个时直接返回，不做随机。
func (r *BossRotation) SelectNext() (string, error) {
	if len(r.catalog) == 0 {
		return "", ErrEmptyBossCatalog
	}

	if len(r.pool) == 0 {
		r.Reset()
		log.Printf("[BossRotation] Pool exhausted, refilled with %d bosses", len(r.pool))
	}

	idx := 0
	if len(r.pool) > 1 {
		idx = r.rng.Intn(len(r.pool))
	}

	boss := r.pool[idx]
	r.pool = append(r.pool[:idx], r.pool[idx+1:]...)
	return boss, nil
}

// Remaining 返回本轮剩余的首领（副本）
func (r *BossRotation) Remaining() []string {
	return append([]string(nil), r.pool...)
}
