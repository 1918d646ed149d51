package systems

import (
	"log"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
)

// BattleOptions 创建战斗所需参数
type BattleOptions struct {
	Cols           int
	Rows           int
	RedColumns     int
	BrokenRecovery float64
	Aura           AuraSettings
}

// DefaultBattleOptions 返回默认战斗参数（6x3 场地，左 3 列属于红方）
func DefaultBattleOptions() BattleOptions {
	return BattleOptions{
		Cols:           6,
		Rows:           3,
		RedColumns:     3,
		BrokenRecovery: 10,
		Aura:           DefaultAuraSettings(),
	}
}

// StepReport 单步模拟结果
type StepReport struct {
	Step    uint64
	Hits    []HitEvent
	Removed []ecs.EntityID
}

// BattleSystem 战斗模拟主循环
//
// 每一步（单线程，不阻塞）:
//  1. 场地开始新的一步（破碎格子恢复）
//  2. 推进动画，触发帧回调（可能生成判定框）
//  3. 更新行为
//  4. 投递判定框，经过防御链结算
//  5. 生命值归零的角色/障碍物标记删除
//  6. 限时实体过期
//  7. 结算阶段新挂载的行为补一次更新
//  8. 清理被替换的防御规则、步内行为和已移除的行为
//  9. 提交删除：移出场地、释放行为、回收实体
type BattleSystem struct {
	entityManager *ecs.EntityManager

	Field     *FieldSystem
	Animation *AnimationSystem
	Behaviors *BehaviorSystem
	Defense   *DefenseSystem
	Hitboxes  *HitboxSystem
	Lifetime  *LifetimeSystem

	auraSettings AuraSettings
	step         uint64

	// OnEntityRemoved 实体被提交删除前回调（可选）
	OnEntityRemoved func(id ecs.EntityID)
}

// NewBattleSystem 创建战斗及其全部子系统
func NewBattleSystem(em *ecs.EntityManager, opts BattleOptions) *BattleSystem {
	field := NewFieldSystem(em, opts.Cols, opts.Rows, opts.RedColumns, opts.BrokenRecovery)
	defense := NewDefenseSystem(em)

	return &BattleSystem{
		entityManager: em,
		Field:         field,
		Animation:     NewAnimationSystem(em),
		Behaviors:     NewBehaviorSystem(em),
		Defense:       defense,
		Hitboxes:      NewHitboxSystem(em, field, defense),
		Lifetime:      NewLifetimeSystem(em),
		auraSettings:  opts.Aura,
	}
}

// EntityManager 返回实体管理器
func (s *BattleSystem) EntityManager() *ecs.EntityManager {
	return s.entityManager
}

// AuraContext 返回创建光环所需的上下文
func (s *BattleSystem) AuraContext() AuraContext {
	return AuraContext{
		Entities:  s.entityManager,
		Defense:   s.Defense,
		Behaviors: s.Behaviors,
		Settings:  s.auraSettings,
	}
}

// CurrentStep 返回已完成的步数
func (s *BattleSystem) CurrentStep() uint64 {
	return s.step
}

// RestoreStep 设置已完成的步数（读取存档时使用），场地步号同步
func (s *BattleSystem) RestoreStep(step uint64) {
	s.step = step
	if f := s.Field.field(); f != nil {
		f.Step = step
	}
}

// Step 推进一步模拟
func (s *BattleSystem) Step(dt float64) StepReport {
	s.step++
	report := StepReport{Step: s.step}

	s.Field.BeginStep(dt)
	s.clearHitFlags()

	s.Animation.Update(dt)
	s.Behaviors.Update(dt)
	report.Hits = s.Hitboxes.Update()
	s.checkDeaths()
	s.Lifetime.Update(dt)
	s.Behaviors.FinishStep(dt)

	s.Defense.PruneReplaced()
	s.Behaviors.Prune()

	report.Removed = s.commit()
	return report
}

func (s *BattleSystem) clearHitFlags() {
	for _, id := range ecs.GetEntitiesWith1[*components.HitFlagsComponent](s.entityManager) {
		if flags, ok := ecs.GetComponent[*components.HitFlagsComponent](s.entityManager, id); ok {
			flags.Flags = 0
		}
	}
}

// checkDeaths 生命值归零的角色和障碍物标记删除
func (s *BattleSystem) checkDeaths() {
	entities := ecs.GetEntitiesWith2[*components.HealthComponent, *components.EntityKindComponent](s.entityManager)
	for _, id := range entities {
		if s.entityManager.IsMarkedForDestroy(id) {
			continue
		}
		health, _ := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
		kind, _ := ecs.GetComponent[*components.EntityKindComponent](s.entityManager, id)
		if health == nil || kind == nil || !kind.Kind.Blocking() {
			continue
		}
		if health.IsDead() {
			log.Printf("[BattleSystem] 实体 %d (%s) 生命值归零", id, kind.Kind)
			s.entityManager.DestroyEntity(id)
		}
	}
}

// commit 提交本步所有删除
// 释放行为时可能标记新的实体，循环直到没有未处理的实体
func (s *BattleSystem) commit() []ecs.EntityID {
	var removed []ecs.EntityID
	done := make(map[ecs.EntityID]bool)

	for {
		marked := s.entityManager.MarkedEntities()
		progressed := false
		for _, id := range marked {
			if done[id] {
				continue
			}
			done[id] = true
			progressed = true

			if s.OnEntityRemoved != nil {
				s.OnEntityRemoved(id)
			}
			s.Field.RemoveEntity(id)
			s.Behaviors.ReleaseEntity(id)
			removed = append(removed, id)
		}
		if !progressed {
			break
		}
	}

	s.entityManager.RemoveMarkedEntities()
	return removed
}
