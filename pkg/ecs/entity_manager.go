package ecs

import (
	"reflect"
	"sort"
)

// EntityID 是实体的唯一标识符
type EntityID uint64

// EntityManager 管理所有实体和组件
//
// 组件按类型分表存储，查询使用泛型函数（GetComponent、GetEntitiesWith1 等）
type EntityManager struct {
	nextID uint64
	// 存活实体集合
	entities map[EntityID]struct{}
	// 组件类型 -> EntityID -> 组件实例
	stores map[reflect.Type]map[EntityID]any
	// 待删除的实体ID列表
	entitiesToDestroy []EntityID
	pendingDestroy    map[EntityID]bool
}

// NewEntityManager 创建一个新的 EntityManager 实例
func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID:         1, // ID从1开始,0保留为无效ID
		entities:       make(map[EntityID]struct{}),
		stores:         make(map[reflect.Type]map[EntityID]any),
		pendingDestroy: make(map[EntityID]bool),
	}
}

// CreateEntity 创建新实体并返回唯一ID
func (em *EntityManager) CreateEntity() EntityID {
	id := EntityID(em.nextID)
	em.nextID++
	em.entities[id] = struct{}{}
	return id
}

// DestroyEntity 标记实体待删除(不立即删除)
// 重复标记只记录一次
func (em *EntityManager) DestroyEntity(id EntityID) {
	if _, ok := em.entities[id]; !ok || em.pendingDestroy[id] {
		return
	}
	em.pendingDestroy[id] = true
	em.entitiesToDestroy = append(em.entitiesToDestroy, id)
}

// IsPendingDestroy 实体是否已标记删除
func (em *EntityManager) IsPendingDestroy(id EntityID) bool {
	return em.pendingDestroy[id]
}

// RemoveMarkedEntities 清理所有标记删除的实体
// 返回清理的实体数
func (em *EntityManager) RemoveMarkedEntities() int {
	removed := len(em.entitiesToDestroy)
	for _, id := range em.entitiesToDestroy {
		delete(em.entities, id)
		delete(em.pendingDestroy, id)
		for _, store := range em.stores {
			delete(store, id)
		}
	}
	em.entitiesToDestroy = em.entitiesToDestroy[:0] // 清空切片
	return removed
}

// IsAlive 实体是否存在（含已标记但尚未清理的实体）
func (em *EntityManager) IsAlive(id EntityID) bool {
	_, ok := em.entities[id]
	return ok
}

// EntityCount 返回实体数量
func (em *EntityManager) EntityCount() int {
	return len(em.entities)
}

// Clear 删除所有实体与组件，ID 计数不回退
func (em *EntityManager) Clear() {
	em.entities = make(map[EntityID]struct{})
	em.stores = make(map[reflect.Type]map[EntityID]any)
	em.pendingDestroy = make(map[EntityID]bool)
	em.entitiesToDestroy = em.entitiesToDestroy[:0]
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// AddComponent 为实体添加组件，同类型组件会被替换
func AddComponent[T any](em *EntityManager, id EntityID, component T) {
	if !em.IsAlive(id) {
		return
	}
	key := typeKey[T]()
	store, ok := em.stores[key]
	if !ok {
		store = make(map[EntityID]any)
		em.stores[key] = store
	}
	store[id] = component
}

// GetComponent 获取实体的特定类型组件
func GetComponent[T any](em *EntityManager, id EntityID) (T, bool) {
	var zero T
	store, ok := em.stores[typeKey[T]()]
	if !ok {
		return zero, false
	}
	comp, ok := store[id]
	if !ok {
		return zero, false
	}
	return comp.(T), true
}

// HasComponent 检查实体是否拥有特定类型组件
func HasComponent[T any](em *EntityManager, id EntityID) bool {
	store, ok := em.stores[typeKey[T]()]
	if !ok {
		return false
	}
	_, found := store[id]
	return found
}

// RemoveComponent 从实体移除指定类型的组件
func RemoveComponent[T any](em *EntityManager, id EntityID) {
	if store, ok := em.stores[typeKey[T]()]; ok {
		delete(store, id)
	}
}

// GetEntitiesWith1 查询拥有组件 T 的所有实体，按 ID 升序
func GetEntitiesWith1[T any](em *EntityManager) []EntityID {
	store := em.stores[typeKey[T]()]
	result := make([]EntityID, 0, len(store))
	for id := range store {
		result = append(result, id)
	}
	sortIDs(result)
	return result
}

// CountWith1 返回拥有组件 T 的实体数量
func CountWith1[T any](em *EntityManager) int {
	return len(em.stores[typeKey[T]()])
}

func sortIDs(ids []EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
