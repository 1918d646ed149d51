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
	// ElectricCurrentState 电流动画状态
	ElectricCurrentState = "ELECTRIC"
	// ElectricCurrentDamage 电流伤害
	ElectricCurrentDamage = 100

	// 动画帧索引（0-based）：第 1 帧打上下两行，第 4 帧打中间行
	electricOuterRowsFrame = 0
	electricMiddleRowFrame = 3
)

// ElectricCurrentComponent 电流法术状态
type ElectricCurrentComponent struct {
	Count    int // 已完成的循环次数
	CountMax int // 循环次数上限，达到后删除
}

// NewElectricCurrent 创建电流法术
// 动画循环播放，每一轮在固定帧向左侧三列生成判定框，循环 count 次后删除
//
// 判定框位置（列 1-3）:
//   - 第 1 帧：第 1 行、第 3 行，以及 (3,2)
//   - 第 4 帧：第 2 行
func NewElectricCurrent(b *systems.BattleSystem, doc *anim.Document, team types.Team, col, row, count int) (ecs.EntityID, error) {
	if b == nil || doc == nil {
		return 0, fmt.Errorf("battle system and animation are required")
	}
	if count <= 0 {
		return 0, fmt.Errorf("electric current loop count must be positive, got %d", count)
	}

	em := b.EntityManager()
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.EntityKindComponent{Kind: types.KindSpell})
	ecs.AddComponent(em, id, &components.TeamComponent{Team: team})
	state := &ElectricCurrentComponent{CountMax: count}
	ecs.AddComponent(em, id, state)
	if !b.Field.AddEntity(id, col, row) {
		em.DestroyEntity(id)
		return 0, fmt.Errorf("cannot place electric current at (%d,%d)", col, row)
	}

	props := components.HitProperties{
		Damage:    ElectricCurrentDamage,
		Element:   types.ElementElec,
		Flags:     types.FlagFlash,
		Aggressor: id,
	}
	spawn := func(c, r int) {
		// 最后一轮结束时已标记删除，绕回第 1 帧不再出招
		if em.IsMarkedForDestroy(id) {
			return
		}
		if _, err := NewHitbox(b, team, c, r, props); err != nil {
			log.Printf("[ElectricCurrent] 生成判定框失败: %v", err)
		}
	}

	b.Animation.Attach(id, doc)
	if err := b.Animation.Load(id, ElectricCurrentState); err != nil {
		em.DestroyEntity(id)
		return 0, err
	}
	b.Animation.SetMode(id, types.PlaybackLoop)

	b.Animation.OnComplete(id, components.InvocableFunc(func() {
		state.Count++
		if state.Count >= state.CountMax {
			em.DestroyEntity(id)
		}
	}))

	if err := b.Animation.OnFrame(id, electricOuterRowsFrame, components.InvocableFunc(func() {
		for c := 1; c <= 3; c++ {
			spawn(c, 1)
		}
		for c := 1; c <= 3; c++ {
			spawn(c, 3)
		}
		spawn(3, 2)
	}), false); err != nil {
		em.DestroyEntity(id)
		return 0, err
	}

	if err := b.Animation.OnFrame(id, electricMiddleRowFrame, components.InvocableFunc(func() {
		for c := 1; c <= 3; c++ {
			spawn(c, 2)
		}
	}), false); err != nil {
		em.DestroyEntity(id)
		return 0, err
	}

	log.Printf("[ElectricCurrent] 创建电流 %d: 阵营=%s, 循环=%d", id, team, count)
	return id, nil
}
