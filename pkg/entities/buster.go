package entities

import (
	"fmt"
	"log"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/systems"
	"github.com/decker502/netbattle/pkg/types"
)

const (
	// BusterDamage 普通射击伤害
	BusterDamage = 1
	// BusterChargedDamage 蓄力射击伤害
	BusterChargedDamage = 10
	// DefaultBusterInterval 每移动一格的间隔（秒）
	DefaultBusterInterval = 0.05
)

// busterBehavior 沿行移动，遇到第一个敌方角色时生成判定框并删除自身
type busterBehavior struct {
	battle   *systems.BattleSystem
	team     types.Team
	dir      types.Direction
	props    components.HitProperties
	interval float64
	cooldown float64
	finished bool
}

// NewBuster 创建射击法术
// 从 (col,row) 出发沿阵营朝向移动，每 interval 秒前进一格
// 命中时蓄力造成 10 点伤害，否则 1 点；离开场地时删除
func NewBuster(b *systems.BattleSystem, team types.Team, col, row int, charged bool, aggressor ecs.EntityID) (ecs.EntityID, error) {
	if b == nil {
		return 0, fmt.Errorf("battle system cannot be nil")
	}
	dir := team.Facing()
	if dir == types.DirectionNone {
		return 0, fmt.Errorf("buster needs a team with a facing, got %s", team)
	}

	damage := BusterDamage
	if charged {
		damage = BusterChargedDamage
	}

	em := b.EntityManager()
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.EntityKindComponent{Kind: types.KindSpell})
	ecs.AddComponent(em, id, &components.TeamComponent{Team: team})
	if !b.Field.AddEntity(id, col, row) {
		em.DestroyEntity(id)
		return 0, fmt.Errorf("cannot place buster at (%d,%d)", col, row)
	}

	beh := &busterBehavior{
		battle: b,
		team:   team,
		dir:    dir,
		props: components.HitProperties{
			Damage:    damage,
			Flags:     types.FlagImpact,
			Direction: dir,
			Aggressor: aggressor,
		},
		interval: DefaultBusterInterval,
	}
	if _, err := b.Behaviors.Attach(id, beh, components.LifetimePersistent); err != nil {
		em.DestroyEntity(id)
		return 0, err
	}
	return id, nil
}

// OnUpdate 实现 components.Behavior
func (bb *busterBehavior) OnUpdate(owner ecs.EntityID, dt float64) {
	if bb.finished {
		return
	}
	em := bb.battle.EntityManager()
	if em.IsMarkedForDestroy(owner) {
		bb.finished = true
		return
	}

	bb.cooldown += dt
	for bb.cooldown >= bb.interval && !bb.finished {
		bb.cooldown -= bb.interval
		bb.move(owner)
	}
}

// move 前进一格，命中敌方角色或离开场地时结束
func (bb *busterBehavior) move(owner ecs.EntityID) {
	col, row, ok := bb.battle.Field.TileOf(owner)
	dc, _ := bb.dir.Delta()
	if !ok || !bb.battle.Field.AddEntity(owner, col+dc, row) {
		bb.finish(owner)
		return
	}

	col += dc
	for _, other := range bb.battle.Field.Occupants(col, row) {
		if !bb.isTarget(other) {
			continue
		}
		if _, err := NewHitbox(bb.battle, bb.team, col, row, bb.props); err != nil {
			log.Printf("[Buster] 生成判定框失败: %v", err)
		}
		bb.finish(owner)
		return
	}
}

func (bb *busterBehavior) isTarget(id ecs.EntityID) bool {
	em := bb.battle.EntityManager()
	if em.IsMarkedForDestroy(id) {
		return false
	}
	kind, ok := ecs.GetComponent[*components.EntityKindComponent](em, id)
	if !ok || kind.Kind != types.KindCharacter {
		return false
	}
	team, ok := ecs.GetComponent[*components.TeamComponent](em, id)
	return ok && team.Team != bb.team
}

func (bb *busterBehavior) finish(owner ecs.EntityID) {
	bb.finished = true
	bb.battle.EntityManager().DestroyEntity(owner)
}
