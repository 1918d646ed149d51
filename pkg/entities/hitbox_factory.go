package entities

import (
	"fmt"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/systems"
	"github.com/decker502/netbattle/pkg/types"
)

// NewHitbox 在格子上生成判定框
// 判定框在本步的投递阶段结算一次后自动删除
func NewHitbox(b *systems.BattleSystem, team types.Team, col, row int, props components.HitProperties) (ecs.EntityID, error) {
	if b == nil {
		return 0, fmt.Errorf("battle system cannot be nil")
	}

	em := b.EntityManager()
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.EntityKindComponent{Kind: types.KindHitbox})
	ecs.AddComponent(em, id, &components.TeamComponent{Team: team})
	ecs.AddComponent(em, id, &components.HitboxComponent{Props: props, Team: team})

	if !b.Field.AddEntity(id, col, row) {
		em.DestroyEntity(id)
		return 0, fmt.Errorf("cannot place hitbox at (%d,%d)", col, row)
	}
	return id, nil
}

// Spawner 把判定框生成接口暴露给脚本等外部调用方
type Spawner struct {
	battle *systems.BattleSystem
}

// NewSpawner 创建生成器
func NewSpawner(b *systems.BattleSystem) *Spawner {
	return &Spawner{battle: b}
}

// SpawnHitbox 生成判定框
func (s *Spawner) SpawnHitbox(team types.Team, col, row int, props components.HitProperties) (ecs.EntityID, error) {
	return NewHitbox(s.battle, team, col, row, props)
}

// Destroy 标记实体删除
func (s *Spawner) Destroy(id ecs.EntityID) {
	s.battle.EntityManager().DestroyEntity(id)
}
