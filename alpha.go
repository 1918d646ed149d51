package main

import (
	"log"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/entities"
	"github.com/decker502/netbattle/pkg/scripting"
	"github.com/decker502/netbattle/pkg/types"
)

const (
	// alphaAttackInterval 两次攻击之间的间隔（秒）
	alphaAttackInterval = 3.0
	// alphaCurrentLoops 电流循环次数
	alphaCurrentLoops = 2
	// alphaAttackFrame ATTACK 动画中执行攻击脚本的帧
	alphaAttackFrame = 1
)

// alphaBehavior Alpha 的攻击循环：脚本攻击和电流交替
type alphaBehavior struct {
	sandbox  *Sandbox
	cooldown float64
	busy     bool
	turn     int
}

func (a *alphaBehavior) OnUpdate(owner ecs.EntityID, dt float64) {
	if a.busy {
		return
	}
	a.cooldown -= dt
	if a.cooldown > 0 {
		return
	}
	a.cooldown = alphaAttackInterval

	var err error
	if a.turn%2 == 0 {
		err = a.scriptedAttack(owner)
	} else {
		err = a.electricCurrent(owner)
	}
	a.turn++
	if err != nil {
		log.Printf("[Alpha] 攻击失败: %v", err)
	}
}

// scriptedAttack 播放 ATTACK，在攻击帧执行脚本，结束后回到 IDLE
func (a *alphaBehavior) scriptedAttack(owner ecs.EntityID) error {
	s := a.sandbox
	prog, err := s.script(alphaAttackScript)
	if err != nil {
		return err
	}
	if err := s.battle.Animation.Load(owner, "ATTACK"); err != nil {
		return err
	}
	cb := s.host.NewCallback(prog, scripting.Context{Owner: owner, Team: types.TeamBlue})
	if err := s.battle.Animation.OnFrame(owner, alphaAttackFrame, cb, true); err != nil {
		return err
	}

	a.busy = true
	done := components.InvocableFunc(func() {
		a.busy = false
		s.playIdle(owner)
	})
	if err := s.battle.Animation.OnComplete(owner, done); err != nil {
		return err
	}
	return s.battle.Animation.OnInterrupt(owner, components.InvocableFunc(func() { a.busy = false }))
}

func (a *alphaBehavior) electricCurrent(owner ecs.EntityID) error {
	s := a.sandbox
	doc, err := s.animation(currentAnimation)
	if err != nil {
		return err
	}
	col, row, ok := s.battle.Field.TileOf(owner)
	if !ok {
		return nil
	}
	_, err = entities.NewElectricCurrent(s.battle, doc, types.TeamBlue, col, row, alphaCurrentLoops)
	return err
}
