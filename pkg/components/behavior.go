package components

import "github.com/decker502/netbattle/pkg/ecs"

// Behavior 挂载在实体上的行为对象
// 由 BehaviorSystem 按挂载顺序每步调用一次 OnUpdate
type Behavior interface {
	OnUpdate(owner ecs.EntityID, dt float64)
}

// BehaviorAttacher 可选接口：行为挂载成功后收到自己的句柄
// 行为需要自我移除时保存该句柄
type BehaviorAttacher interface {
	OnAttach(owner ecs.EntityID, handle BehaviorHandle)
}

// BehaviorDetacher 可选接口：行为被销毁时回调
type BehaviorDetacher interface {
	OnDetach(owner ecs.EntityID)
}

// BehaviorLifetime 行为的生命周期策略
type BehaviorLifetime int

const (
	// LifetimePersistent 持续存在，直到显式移除或所属实体被删除
	LifetimePersistent BehaviorLifetime = iota
	// LifetimeBattleStep 仅存在于当前模拟步，步结束时自动销毁
	LifetimeBattleStep
)

// String 返回生命周期的字符串表示
func (l BehaviorLifetime) String() string {
	if l == LifetimeBattleStep {
		return "BattleStep"
	}
	return "Persistent"
}

// BehaviorHandle 行为句柄
// 槽位被回收后代数递增，旧句柄自动失效；零值永远无效
type BehaviorHandle struct {
	Index      uint32
	Generation uint32
}

// IsZero 检查句柄是否为零值
func (h BehaviorHandle) IsZero() bool {
	return h.Generation == 0
}

// BehaviorListComponent 实体拥有的行为列表（按挂载顺序）
// 实体独占列表中的所有行为
type BehaviorListComponent struct {
	Handles []BehaviorHandle
}
