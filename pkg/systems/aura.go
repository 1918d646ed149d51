package systems

import (
	"fmt"
	"log"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
	"github.com/jakecoffman/cp"
)

// AuraSpec 单种光环的参数
type AuraSpec struct {
	Pool       int
	Persistent bool
}

// AuraSettings 光环全局参数
type AuraSettings struct {
	Timer        float64 // 非持久光环的存在时间（秒）
	RemovalGrace float64 // 耗尽后到移除的缓冲时间（秒）
	FlyAccel     cp.Vector
	Types        map[components.AuraType]AuraSpec
}

// DefaultAuraSettings 返回默认光环参数
func DefaultAuraSettings() AuraSettings {
	return AuraSettings{
		Timer:        50,
		RemovalGrace: 2,
		FlyAccel:     cp.Vector{X: 5, Y: -12},
		Types: map[components.AuraType]AuraSpec{
			components.Aura100:    {Pool: 100},
			components.Aura200:    {Pool: 200},
			components.Aura1000:   {Pool: 1000},
			components.Barrier10:  {Pool: 100, Persistent: true},
			components.Barrier200: {Pool: 200, Persistent: true},
			components.Barrier500: {Pool: 500, Persistent: true},
		},
	}
}

// AuraContext 创建光环所需的系统
type AuraContext struct {
	Entities  *ecs.EntityManager
	Defense   *DefenseSystem
	Behaviors *BehaviorSystem
	Settings  AuraSettings
}

// Aura 光环/屏障
// 同时是防御规则（吸收攻击）和行为（计时、移除）
//
// 状态机:
//
//	Active -> Depleting (吸收量或计时归零) -> Detached (缓冲时间结束，通知所属实体)
//	Active -> Replaced -> Detached (被新光环替换，不播放耗尽流程，不通知)
//
// 非持久光环 Active 时计时衰减；持久屏障只在耗尽后开始倒计时
// 风属性攻击直接吹走光环
type Aura struct {
	components.DefenseRuleBase

	ctx    AuraContext
	owner  ecs.EntityID
	status *components.AuraComponent
	handle components.BehaviorHandle

	detached bool

	// OnRemoved 耗尽移除后通知所属实体（被替换时不调用）
	OnRemoved components.Invocable
}

// NewAura 为实体创建光环，加入防御链并挂载行为
// 已有光环会被替换
func NewAura(ctx AuraContext, owner ecs.EntityID, auraType components.AuraType) (*Aura, error) {
	spec, ok := ctx.Settings.Types[auraType]
	if !ok {
		return nil, fmt.Errorf("unknown aura type %v", auraType)
	}
	if !ctx.Entities.IsAlive(owner) {
		return nil, fmt.Errorf("cannot attach aura to dead entity %d", owner)
	}

	a := &Aura{
		DefenseRuleBase: components.NewDefenseRuleBase(CategoryAura),
		ctx:             ctx,
		owner:           owner,
		status: &components.AuraComponent{
			Type:       auraType,
			State:      components.AuraActive,
			Pool:       spec.Pool,
			MaxPool:    spec.Pool,
			Timer:      ctx.Settings.Timer,
			Persistent: spec.Persistent,
		},
	}

	if _, err := ctx.Behaviors.Attach(owner, a, components.LifetimePersistent); err != nil {
		return nil, err
	}
	ctx.Defense.AddRule(owner, a)
	ecs.AddComponent(ctx.Entities, owner, a.status)

	log.Printf("[Aura] 实体 %d 获得 %s (吸收量 %d)", owner, auraType, spec.Pool)
	return a, nil
}

// OnAttach 保存行为句柄
func (a *Aura) OnAttach(owner ecs.EntityID, handle components.BehaviorHandle) {
	a.handle = handle
}

// State 返回当前状态
func (a *Aura) State() components.AuraState { return a.status.State }

// Pool 返回剩余吸收量
func (a *Aura) Pool() int { return a.status.Pool }

// Timer 返回剩余时间
func (a *Aura) Timer() float64 { return a.status.Timer }

// Status 返回可观察状态
func (a *Aura) Status() *components.AuraComponent { return a.status }

// Check 实现 DefenseRule
// Active 时吸收攻击并扣除吸收量；耗尽后放行
func (a *Aura) Check(hit *components.HitProperties, owner ecs.EntityID) bool {
	if a.status.State != components.AuraActive || a.IsReplaced() {
		return false
	}

	if hit.Element == types.ElementWind {
		a.status.Pool = 0
		a.startFlyAway(hit.Direction)
		a.deplete("吹走")
		return true
	}

	a.status.Pool -= hit.Damage
	if a.status.Pool <= 0 {
		a.status.Pool = 0
		a.deplete("吸收量耗尽")
	}
	return true
}

func (a *Aura) startFlyAway(dir types.Direction) {
	accel := a.ctx.Settings.FlyAccel
	if dir == types.DirectionLeft {
		accel.X = -accel.X
	}
	a.status.FlyAway = true
	a.status.FlyAccel = accel
	a.status.FlyVel = cp.Vector{}
	a.status.FlyOffset = cp.Vector{}
}

func (a *Aura) deplete(reason string) {
	a.status.State = components.AuraDepleting
	a.status.Timer = a.ctx.Settings.RemovalGrace
	log.Printf("[Aura] 实体 %d 的 %s 进入移除流程: %s", a.owner, a.status.Type, reason)
}

// OnUpdate 实现 Behavior
func (a *Aura) OnUpdate(owner ecs.EntityID, dt float64) {
	if a.detached {
		return
	}
	em := a.ctx.Entities
	if !em.IsAlive(owner) || em.IsMarkedForDestroy(owner) {
		a.detach(false)
		return
	}
	if a.IsReplaced() {
		a.status.State = components.AuraReplaced
		a.detach(false)
		return
	}

	switch a.status.State {
	case components.AuraActive:
		if a.status.Persistent {
			return
		}
		a.status.Timer -= dt
		if a.status.Timer <= 0 {
			a.status.Timer = 0
			a.deplete("计时结束")
		}
	case components.AuraDepleting:
		if a.status.FlyAway {
			a.status.FlyVel = a.status.FlyVel.Add(a.status.FlyAccel.Mult(dt))
			a.status.FlyOffset = a.status.FlyOffset.Add(a.status.FlyVel.Mult(dt))
		}
		a.status.Timer -= dt
		if a.status.Timer <= 0 {
			a.status.Timer = 0
			a.detach(true)
		}
	}
}

// OnDetach 实现 BehaviorDetacher：行为被销毁（实体清理）时同步移除规则
func (a *Aura) OnDetach(owner ecs.EntityID) {
	a.detach(false)
}

// Detach 立即移除光环，重复调用为空操作
func (a *Aura) Detach() {
	a.detach(false)
}

// IsDetached 检查光环是否已移除
func (a *Aura) IsDetached() bool {
	return a.detached
}

func (a *Aura) detach(notify bool) {
	if a.detached {
		return
	}
	a.detached = true
	a.status.State = components.AuraDetached

	a.ctx.Defense.RemoveRule(a.owner, a)
	a.ctx.Behaviors.Detach(a.handle)
	if cur, ok := ecs.GetComponent[*components.AuraComponent](a.ctx.Entities, a.owner); ok && cur == a.status {
		ecs.RemoveComponent[*components.AuraComponent](a.ctx.Entities, a.owner)
	}

	log.Printf("[Aura] 实体 %d 的 %s 已移除", a.owner, a.status.Type)
	if notify {
		components.Invoke(a.OnRemoved)
	}
}
