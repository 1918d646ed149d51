package entities

import (
	"fmt"
	"log"

	"github.com/decker502/netbattle/internal/anim"
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/systems"
	"github.com/decker502/netbattle/pkg/types"
)

// CharacterSpec 创建角色所需参数
type CharacterSpec struct {
	Team   types.Team
	Col    int
	Row    int
	Health int

	// Animation 角色动画资源（可选）
	Animation *anim.Document
	// InitialState 初始动画状态，为空时不播放
	InitialState string
	// Loop 初始状态是否循环播放
	Loop bool
}

// NewCharacter 创建角色实体并放到场地上
//
// 参数:
//   - b: 战斗系统
//   - spec: 角色参数
//
// 返回:
//   - ecs.EntityID: 创建的角色实体ID，失败返回 0
//   - error: 格子不可占据或动画状态不存在时返回错误
func NewCharacter(b *systems.BattleSystem, spec CharacterSpec) (ecs.EntityID, error) {
	if b == nil {
		return 0, fmt.Errorf("battle system cannot be nil")
	}
	if spec.Health <= 0 {
		return 0, fmt.Errorf("character health must be positive, got %d", spec.Health)
	}

	em := b.EntityManager()
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.EntityKindComponent{Kind: types.KindCharacter})
	ecs.AddComponent(em, id, &components.TeamComponent{Team: spec.Team})
	ecs.AddComponent(em, id, &components.HealthComponent{CurrentHealth: spec.Health, MaxHealth: spec.Health})
	ecs.AddComponent(em, id, &components.HitFlagsComponent{})

	if !b.Field.AddEntity(id, spec.Col, spec.Row) {
		em.DestroyEntity(id)
		return 0, fmt.Errorf("tile (%d,%d) cannot hold a %s character", spec.Col, spec.Row, spec.Team)
	}

	if spec.Animation != nil {
		if err := playInitial(b, id, spec.Animation, spec.InitialState, spec.Loop); err != nil {
			b.Field.RemoveEntity(id)
			em.DestroyEntity(id)
			return 0, err
		}
	}

	log.Printf("[CharacterFactory] 创建角色 %d: 阵营=%s, 位置=(%d,%d), 生命值=%d",
		id, spec.Team, spec.Col, spec.Row, spec.Health)
	return id, nil
}

// NewObstacle 创建障碍物（石块等），不属于任何阵营
func NewObstacle(b *systems.BattleSystem, col, row, health int) (ecs.EntityID, error) {
	if b == nil {
		return 0, fmt.Errorf("battle system cannot be nil")
	}

	em := b.EntityManager()
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.EntityKindComponent{Kind: types.KindObstacle})
	ecs.AddComponent(em, id, &components.TeamComponent{Team: types.TeamUnknown})
	ecs.AddComponent(em, id, &components.HealthComponent{CurrentHealth: health, MaxHealth: health})

	if !b.Field.AddEntity(id, col, row) {
		em.DestroyEntity(id)
		return 0, fmt.Errorf("tile (%d,%d) cannot hold an obstacle", col, row)
	}
	return id, nil
}

// playInitial 挂载动画并播放初始状态
func playInitial(b *systems.BattleSystem, id ecs.EntityID, doc *anim.Document, state string, loop bool) error {
	b.Animation.Attach(id, doc)
	if state == "" {
		return nil
	}
	if err := b.Animation.Load(id, state); err != nil {
		return fmt.Errorf("failed to play initial animation: %w", err)
	}
	if loop {
		return b.Animation.SetMode(id, types.PlaybackLoop)
	}
	return nil
}
