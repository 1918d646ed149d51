package ecs

import "reflect"

// EntityID 是实体的句柄
// 低 32 位为槽位索引，高 32 位为代数（generation）
// 槽位被回收后代数加一，旧句柄随即失效
type EntityID uint64

const entityIndexBits = 32

func makeEntityID(index, gen uint32) EntityID {
	return EntityID(uint64(gen)<<entityIndexBits | uint64(index))
}

// Index 返回句柄的槽位索引
func (id EntityID) Index() uint32 {
	return uint32(id)
}

// Generation 返回句柄的代数
func (id EntityID) Generation() uint32 {
	return uint32(uint64(id) >> entityIndexBits)
}

// entitySlot 单个实体槽位
type entitySlot struct {
	gen        uint32
	alive      bool
	components map[reflect.Type]interface{}
}

// EntityManager 管理所有实体和组件
type EntityManager struct {
	// slots[0] 保留，索引 0 永远无效
	slots []entitySlot
	free  []uint32
	// 存活实体，按创建顺序排列（查询结果顺序稳定）
	order []EntityID
	// 待删除的实体ID列表
	entitiesToDestroy []EntityID
	marked            map[EntityID]bool
}

// NewEntityManager 创建一个新的 EntityManager 实例
func NewEntityManager() *EntityManager {
	return &EntityManager{
		slots:             make([]entitySlot, 1), // ID从1开始,0保留为无效ID
		entitiesToDestroy: make([]EntityID, 0),
		marked:            make(map[EntityID]bool),
	}
}

// CreateEntity 创建新实体并返回句柄
// 优先复用已回收的槽位（代数已递增）
func (em *EntityManager) CreateEntity() EntityID {
	var index uint32
	if n := len(em.free); n > 0 {
		index = em.free[n-1]
		em.free = em.free[:n-1]
	} else {
		em.slots = append(em.slots, entitySlot{})
		index = uint32(len(em.slots) - 1)
	}

	slot := &em.slots[index]
	slot.alive = true
	slot.components = make(map[reflect.Type]interface{})

	id := makeEntityID(index, slot.gen)
	em.order = append(em.order, id)
	return id
}

// slot 返回句柄对应的存活槽位，代数不匹配时返回 nil
func (em *EntityManager) slot(id EntityID) *entitySlot {
	index := id.Index()
	if index == 0 || int(index) >= len(em.slots) {
		return nil
	}
	s := &em.slots[index]
	if !s.alive || s.gen != id.Generation() {
		return nil
	}
	return s
}

// IsAlive 检查句柄是否仍然有效（已标记删除但尚未清理的实体仍视为存活）
func (em *EntityManager) IsAlive(id EntityID) bool {
	return em.slot(id) != nil
}

// DestroyEntity 标记实体待删除(不立即删除)
// 重复标记是幂等的
func (em *EntityManager) DestroyEntity(id EntityID) {
	if em.slot(id) == nil || em.marked[id] {
		return
	}
	em.marked[id] = true
	em.entitiesToDestroy = append(em.entitiesToDestroy, id)
}

// IsMarkedForDestroy 检查实体是否已标记待删除
func (em *EntityManager) IsMarkedForDestroy(id EntityID) bool {
	return em.marked[id]
}

// MarkedEntities 返回当前待删除实体列表的副本
func (em *EntityManager) MarkedEntities() []EntityID {
	out := make([]EntityID, len(em.entitiesToDestroy))
	copy(out, em.entitiesToDestroy)
	return out
}

// AddComponent 为实体添加组件
func (em *EntityManager) AddComponent(id EntityID, component interface{}) {
	if s := em.slot(id); s != nil {
		s.components[reflect.TypeOf(component)] = component
	}
}

// RemoveComponent 从实体移除指定类型的组件
func (em *EntityManager) RemoveComponent(id EntityID, componentType reflect.Type) {
	if s := em.slot(id); s != nil {
		delete(s.components, componentType)
	}
}

// GetComponent 获取实体的特定类型组件
func (em *EntityManager) GetComponent(id EntityID, componentType reflect.Type) (interface{}, bool) {
	if s := em.slot(id); s != nil {
		if comp, found := s.components[componentType]; found {
			return comp, true
		}
	}
	return nil, false
}

// HasComponent 检查实体是否拥有特定类型组件
func (em *EntityManager) HasComponent(id EntityID, componentType reflect.Type) bool {
	if s := em.slot(id); s != nil {
		_, found := s.components[componentType]
		return found
	}
	return false
}

// RemoveMarkedEntities 清理所有标记删除的实体
// 槽位代数递增后放回空闲列表
func (em *EntityManager) RemoveMarkedEntities() {
	if len(em.entitiesToDestroy) == 0 {
		return
	}
	for _, id := range em.entitiesToDestroy {
		s := em.slot(id)
		if s == nil {
			continue
		}
		s.alive = false
		s.components = nil
		s.gen++
		em.free = append(em.free, id.Index())
	}

	kept := em.order[:0]
	for _, id := range em.order {
		if !em.marked[id] {
			kept = append(kept, id)
		}
	}
	em.order = kept

	em.entitiesToDestroy = em.entitiesToDestroy[:0] // 清空切片
	em.marked = make(map[EntityID]bool)
}

// Entities 返回所有存活实体（按创建顺序）
func (em *EntityManager) Entities() []EntityID {
	out := make([]EntityID, len(em.order))
	copy(out, em.order)
	return out
}

// GetEntitiesWith 查询拥有指定组件类型组合的所有实体
// 参数: componentTypes ...reflect.Type - 需要的组件类型列表
// 返回: []EntityID - 满足条件的实体ID列表（按创建顺序）
func (em *EntityManager) GetEntitiesWith(componentTypes ...reflect.Type) []EntityID {
	result := make([]EntityID, 0)

	for _, id := range em.order {
		s := em.slot(id)
		if s == nil {
			continue
		}
		hasAll := true
		for _, ct := range componentTypes {
			if _, found := s.components[ct]; !found {
				hasAll = false
				break
			}
		}
		if hasAll {
			result = append(result, id)
		}
	}

	return result
}
