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

const (
	// GuardHitState 防御特效的动画状态
	GuardHitState = "DEFAULT"
	// guardHitGrace 动画时长之外的最长保留时间，动画被打断时由生命周期删除
	guardHitGrace = 0.5
)

// NewGuardHit 在被攻击者所在格子生成防御特效
// 特效动画播放完毕后自动删除；动画被打断时在超时后删除
func NewGuardHit(b *systems.BattleSystem, doc *anim.Document, target ecs.EntityID) (ecs.EntityID, error) {
	if b == nil || doc == nil {
		return 0, fmt.Errorf("battle system and animation are required")
	}
	col, row, ok := b.Field.TileOf(target)
	if !ok {
		return 0, fmt.Errorf("entity %d is not on the field", target)
	}

	em := b.EntityManager()
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.EntityKindComponent{Kind: types.KindArtifact})
	ecs.AddComponent(em, id, &components.TeamComponent{Team: types.TeamUnknown})
	b.Field.AddEntity(id, col, row)

	b.Animation.Attach(id, doc)
	if err := b.Animation.Load(id, GuardHitState); err != nil {
		em.DestroyEntity(id)
		return 0, err
	}
	b.Animation.OnComplete(id, components.InvocableFunc(func() {
		em.DestroyEntity(id)
	}))

	state, _ := doc.State(GuardHitState)
	ecs.AddComponent(em, id, &components.LifetimeComponent{Duration: state.TotalDuration() + guardHitGrace})
	return id, nil
}

// AddGuard 给实体加上防御规则，防御成功时生成防御特效
func AddGuard(b *systems.BattleSystem, owner ecs.EntityID, guardHit *anim.Document) *systems.GuardRule {
	rule := systems.NewGuardRule(func(hit components.HitProperties, target ecs.EntityID) {
		if guardHit == nil {
			return
		}
		if _, err := NewGuardHit(b, guardHit, target); err != nil {
			log.Printf("[GuardHit] 生成防御特效失败: %v", err)
		}
	})
	b.Defense.AddRule(owner, rule)
	return rule
}
