package systems

import (
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
)

// HitEvent 一次攻击投递的结果
type HitEvent struct {
	Hitbox  ecs.EntityID
	Target  ecs.EntityID
	Col     int
	Row     int
	Props   components.HitProperties
	Applied int // 实际扣除的生命值，被吸收时为 0
}

// HitboxSystem 投递判定框
// 每个判定框只投递一次：对所在格子上每个符合条件的占据者结算一次，然后标记删除
type HitboxSystem struct {
	entityManager *ecs.EntityManager
	field         *FieldSystem
	defense       *DefenseSystem
}

// NewHitboxSystem 创建判定框系统
func NewHitboxSystem(em *ecs.EntityManager, field *FieldSystem, defense *DefenseSystem) *HitboxSystem {
	return &HitboxSystem{
		entityManager: em,
		field:         field,
		defense:       defense,
	}
}

// Update 投递所有未投递的判定框，返回本次的命中结果
func (s *HitboxSystem) Update() []HitEvent {
	var events []HitEvent

	hitboxes := ecs.GetEntitiesWith2[*components.HitboxComponent, *components.TileRefComponent](s.entityManager)
	for _, id := range hitboxes {
		hb, _ := ecs.GetComponent[*components.HitboxComponent](s.entityManager, id)
		ref, _ := ecs.GetComponent[*components.TileRefComponent](s.entityManager, id)
		if hb == nil || ref == nil || hb.Delivered || s.entityManager.IsMarkedForDestroy(id) {
			continue
		}
		hb.Delivered = true

		for _, target := range s.field.Occupants(ref.Col, ref.Row) {
			if !s.canHit(hb, target) {
				continue
			}
			applied := s.defense.Resolve(hb.Props, target)
			events = append(events, HitEvent{
				Hitbox:  id,
				Target:  target,
				Col:     ref.Col,
				Row:     ref.Row,
				Props:   hb.Props,
				Applied: applied,
			})
		}

		s.entityManager.DestroyEntity(id)
	}

	return events
}

// canHit 判定框只命中其他阵营的角色和障碍物
func (s *HitboxSystem) canHit(hb *components.HitboxComponent, target ecs.EntityID) bool {
	if target == hb.Props.Aggressor || s.entityManager.IsMarkedForDestroy(target) {
		return false
	}
	kind, ok := ecs.GetComponent[*components.EntityKindComponent](s.entityManager, target)
	if !ok || !kind.Kind.Blocking() {
		return false
	}
	if !ecs.HasComponent[*components.HealthComponent](s.entityManager, target) {
		return false
	}
	if hb.Team == types.TeamUnknown {
		return true
	}
	team, ok := ecs.GetComponent[*components.TeamComponent](s.entityManager, target)
	return !ok || team.Team != hb.Team
}
