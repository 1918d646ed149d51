package systems

import (
	"fmt"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
)

// behaviorSlot 行为存储槽
type behaviorSlot struct {
	gen      uint32
	alive    bool
	owner    ecs.EntityID
	behavior components.Behavior
	lifetime components.BehaviorLifetime
	// pendingRemoval 已请求移除，等待下一次 Prune
	pendingRemoval bool
}

// BehaviorSystem 管理挂载在实体上的行为对象
//
// 存储模型:
//   - 行为存放在系统内部的槽位数组中，实体只持有句柄列表
//   - 销毁时槽位代数递增，旧句柄立即失效
//   - Detach 永远不会同步删除，统一在 Prune 中销毁
//   - 行为不会比所属实体活得更久（ReleaseEntity 在实体清理时调用）
type BehaviorSystem struct {
	entityManager *ecs.EntityManager

	// slots[0] 保留，零值句柄永远无效
	slots []behaviorSlot
	free  []uint32

	// 本轮 Update 期间的状态
	updating bool
	current  ecs.EntityID
	upcoming map[ecs.EntityID]bool
	late     []components.BehaviorHandle

	// updated 本步的 Update 已结束、FinishStep 尚未执行
	// 期间挂载的行为（如结算阶段的回调挂载）由 FinishStep 补一次更新
	updated bool
}

// NewBehaviorSystem 创建行为系统
func NewBehaviorSystem(em *ecs.EntityManager) *BehaviorSystem {
	return &BehaviorSystem{
		entityManager: em,
		slots:         make([]behaviorSlot, 1),
	}
}

// Attach 把行为挂载到实体上，所有权转移给实体
// 实体必须存活；挂载成功后调用可选的 OnAttach
func (s *BehaviorSystem) Attach(owner ecs.EntityID, b components.Behavior, lifetime components.BehaviorLifetime) (components.BehaviorHandle, error) {
	if b == nil {
		return components.BehaviorHandle{}, fmt.Errorf("cannot attach nil behavior to entity %d", owner)
	}
	if !s.entityManager.IsAlive(owner) {
		return components.BehaviorHandle{}, fmt.Errorf("cannot attach behavior to dead entity %d", owner)
	}

	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, behaviorSlot{gen: 1})
		index = uint32(len(s.slots) - 1)
	}
	slot := &s.slots[index]
	slot.alive = true
	slot.owner = owner
	slot.behavior = b
	slot.lifetime = lifetime
	slot.pendingRemoval = false
	handle := components.BehaviorHandle{Index: index, Generation: slot.gen}

	list, ok := ecs.GetComponent[*components.BehaviorListComponent](s.entityManager, owner)
	if !ok {
		list = &components.BehaviorListComponent{}
		ecs.AddComponent(s.entityManager, owner, list)
	}
	list.Handles = append(list.Handles, handle)

	// 本轮不会再轮到的实体（已处理过或本轮新建），新行为在本轮末尾补一次更新
	// 正在更新的实体由 UpdateAll 的循环直接覆盖
	// Update 之后挂载的行为等到 FinishStep 更新
	if (s.updating && owner != s.current && !s.upcoming[owner]) || s.updated {
		s.late = append(s.late, handle)
	}

	if a, ok := b.(components.BehaviorAttacher); ok {
		a.OnAttach(owner, handle)
	}
	return handle, nil
}

// slot 返回句柄对应的存活槽位
func (s *BehaviorSystem) slot(h components.BehaviorHandle) *behaviorSlot {
	if h.Index == 0 || int(h.Index) >= len(s.slots) {
		return nil
	}
	sl := &s.slots[h.Index]
	if !sl.alive || sl.gen != h.Generation {
		return nil
	}
	return sl
}

// Get 返回句柄对应的行为
func (s *BehaviorSystem) Get(h components.BehaviorHandle) (components.Behavior, bool) {
	if sl := s.slot(h); sl != nil {
		return sl.behavior, true
	}
	return nil, false
}

// IsValid 检查句柄是否仍指向存活的行为（等待移除的行为仍然有效）
func (s *BehaviorSystem) IsValid(h components.BehaviorHandle) bool {
	return s.slot(h) != nil
}

// IsPendingRemoval 检查行为是否已请求移除
func (s *BehaviorSystem) IsPendingRemoval(h components.BehaviorHandle) bool {
	sl := s.slot(h)
	return sl != nil && sl.pendingRemoval
}

// Count 返回实体上未请求移除的行为数量
func (s *BehaviorSystem) Count(owner ecs.EntityID) int {
	list, ok := ecs.GetComponent[*components.BehaviorListComponent](s.entityManager, owner)
	if !ok {
		return 0
	}
	n := 0
	for _, h := range list.Handles {
		if sl := s.slot(h); sl != nil && !sl.pendingRemoval {
			n++
		}
	}
	return n
}

// UpdateAll 按挂载顺序更新实体的所有行为
// 本轮挂载的行为也会被更新；已请求移除的行为跳过
func (s *BehaviorSystem) UpdateAll(owner ecs.EntityID, dt float64) {
	list, ok := ecs.GetComponent[*components.BehaviorListComponent](s.entityManager, owner)
	if !ok {
		return
	}
	// 每次迭代重新读取长度，包含更新过程中追加的行为
	for i := 0; i < len(list.Handles); i++ {
		s.updateOne(owner, list.Handles[i], dt)
	}
}

func (s *BehaviorSystem) updateOne(owner ecs.EntityID, h components.BehaviorHandle, dt float64) {
	sl := s.slot(h)
	if sl == nil || sl.pendingRemoval {
		return
	}
	sl.behavior.OnUpdate(owner, dt)
}

// Update 按实体创建顺序更新所有行为
// 更新期间挂载的行为，如果所属实体本轮不会再被轮到，在本轮末尾补一次更新
func (s *BehaviorSystem) Update(deltaTime float64) {
	owners := ecs.GetEntitiesWith1[*components.BehaviorListComponent](s.entityManager)

	s.updating = true
	s.updated = false
	s.upcoming = make(map[ecs.EntityID]bool, len(owners))
	for _, owner := range owners {
		s.upcoming[owner] = true
	}
	s.late = s.late[:0]

	for _, owner := range owners {
		delete(s.upcoming, owner)
		s.current = owner
		s.UpdateAll(owner, deltaTime)
	}
	s.current = 0
	s.runLate(deltaTime)

	s.updating = false
	s.upcoming = nil
	s.updated = true
}

// runLate 更新 late 中的行为，更新过程中追加的也会被处理
func (s *BehaviorSystem) runLate(dt float64) {
	for i := 0; i < len(s.late); i++ {
		h := s.late[i]
		if sl := s.slot(h); sl != nil {
			s.updateOne(sl.owner, h, dt)
		}
	}
	s.late = s.late[:0]
}

// FinishStep 在清理之前调用：本步 Update 之后挂载的行为补一次更新
// 这样结算阶段挂载的步内行为也在本步被更新恰好一次
func (s *BehaviorSystem) FinishStep(dt float64) {
	if !s.updated {
		return
	}
	s.runLate(dt)
	s.updated = false
}

// Detach 请求移除行为，实际销毁发生在下一次 Prune
// 重复请求或无效句柄返回 false
func (s *BehaviorSystem) Detach(h components.BehaviorHandle) bool {
	sl := s.slot(h)
	if sl == nil || sl.pendingRemoval {
		return false
	}
	sl.pendingRemoval = true
	return true
}

// PruneStepScoped 销毁实体上所有本步有效的行为和已请求移除的行为
func (s *BehaviorSystem) PruneStepScoped(owner ecs.EntityID) {
	list, ok := ecs.GetComponent[*components.BehaviorListComponent](s.entityManager, owner)
	if !ok {
		return
	}
	var doomed []components.BehaviorHandle
	for _, h := range list.Handles {
		if sl := s.slot(h); sl != nil && (sl.pendingRemoval || sl.lifetime == components.LifetimeBattleStep) {
			doomed = append(doomed, h)
		}
	}
	for _, h := range doomed {
		s.destroy(h)
	}
}

// Prune 在步结束时对所有实体执行 PruneStepScoped
func (s *BehaviorSystem) Prune() {
	owners := ecs.GetEntitiesWith1[*components.BehaviorListComponent](s.entityManager)
	for _, owner := range owners {
		s.PruneStepScoped(owner)
	}
}

// ReleaseEntity 销毁实体的全部行为，在实体被清理前调用
func (s *BehaviorSystem) ReleaseEntity(owner ecs.EntityID) {
	list, ok := ecs.GetComponent[*components.BehaviorListComponent](s.entityManager, owner)
	if !ok {
		return
	}
	handles := make([]components.BehaviorHandle, len(list.Handles))
	copy(handles, list.Handles)
	for _, h := range handles {
		s.destroy(h)
	}
	ecs.RemoveComponent[*components.BehaviorListComponent](s.entityManager, owner)
}

// destroy 立即销毁行为：移出所属列表、回收槽位、调用 OnDetach
func (s *BehaviorSystem) destroy(h components.BehaviorHandle) {
	sl := s.slot(h)
	if sl == nil {
		return
	}
	owner := sl.owner
	b := sl.behavior

	if list, ok := ecs.GetComponent[*components.BehaviorListComponent](s.entityManager, owner); ok {
		for i, lh := range list.Handles {
			if lh == h {
				list.Handles = append(list.Handles[:i], list.Handles[i+1:]...)
				break
			}
		}
	}

	// 先回收槽位，OnDetach 中对自身的 Detach 是空操作
	sl.alive = false
	sl.behavior = nil
	sl.pendingRemoval = false
	sl.gen++
	s.free = append(s.free, h.Index)

	if d, ok := b.(components.BehaviorDetacher); ok {
		d.OnDetach(owner)
	}
}
