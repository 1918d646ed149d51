package main

import (
	"fmt"
	"image/color"
	"log"
	"path"
	"strings"

	"github.com/decker502/netbattle/internal/anim"
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/config"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/embedded"
	"github.com/decker502/netbattle/pkg/entities"
	"github.com/decker502/netbattle/pkg/game"
	"github.com/decker502/netbattle/pkg/scripting"
	"github.com/decker502/netbattle/pkg/systems"
	"github.com/decker502/netbattle/pkg/types"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/quasilyte/gdata/v2"
)

const (
	screenWidth  = 800
	screenHeight = 600

	tileWidth  = 96
	tileHeight = 64
	fieldLeft  = 112
	fieldTop   = 200

	saveSlot = "sandbox"
)

// 资源文件名（相对于配置中的资源目录）
const (
	heroAnimation    = "hero.yaml"
	alphaAnimation   = "alpha.yaml"
	currentAnimation = "electric_current.yaml"
	guardAnimation   = "guard_hit.yaml"

	alphaAttackScript = "alpha_attack.tengo"
	alphaCoreScript   = "alpha_core.tengo"
)

var (
	redTileColor    = color.RGBA{R: 200, G: 70, B: 70, A: 255}
	blueTileColor   = color.RGBA{R: 70, G: 90, B: 200, A: 255}
	crackedOverlay  = color.RGBA{R: 40, G: 40, B: 40, A: 120}
	brokenTileColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	tileBorderColor = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

// Sandbox 战斗沙盒
// 红方英雄由键盘控制，蓝方 Alpha 由行为和脚本驱动
type Sandbox struct {
	cfg        *config.BattleConfig
	library    *config.AnimationLibrary
	watcher    *config.AnimationWatcher
	serializer *game.BattleSerializer

	battle *systems.BattleSystem
	host   *scripting.Host

	hero      ecs.EntityID
	alpha     ecs.EntityID
	heroGuard *systems.GuardRule

	// 脚本按文件名缓存，热重载时替换
	scripts map[string]*scripting.Program

	paused   bool
	lastHits []systems.HitEvent
	message  string
}

// NewSandbox 创建沙盒并开始第一场战斗
func NewSandbox(cfg *config.BattleConfig, library *config.AnimationLibrary, watcher *config.AnimationWatcher, store *gdata.Manager) (*Sandbox, error) {
	s := &Sandbox{
		cfg:        cfg,
		library:    library,
		watcher:    watcher,
		serializer: game.NewBattleSerializer(store),
		scripts:    make(map[string]*scripting.Program),
	}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sandbox) animationPath(name string) string {
	return path.Join(s.cfg.Resources.AnimationDir, name)
}

func (s *Sandbox) scriptPath(name string) string {
	return path.Join(s.cfg.Resources.ScriptDir, name)
}

func (s *Sandbox) animation(name string) (*anim.Document, error) {
	return s.library.Load(s.animationPath(name))
}

// script 返回编译好的脚本，首次使用时编译
func (s *Sandbox) script(name string) (*scripting.Program, error) {
	p := s.scriptPath(name)
	if prog, ok := s.scripts[p]; ok {
		return prog, nil
	}
	prog, err := s.host.CompileFile(embedded.FS(), p)
	if err != nil {
		return nil, err
	}
	s.scripts[p] = prog
	return prog, nil
}

// newBattle 创建空战斗
func (s *Sandbox) newBattle() {
	s.battle = systems.NewBattleSystem(ecs.NewEntityManager(), s.cfg.BattleOptions())
	s.host = scripting.NewHost(entities.NewSpawner(s.battle))
	s.scripts = make(map[string]*scripting.Program)
	s.battle.OnEntityRemoved = func(id ecs.EntityID) {
		switch id {
		case s.hero:
			s.message = "英雄被击倒，按 R 重新开始"
		case s.alpha:
			s.message = "Alpha 被击败，按 R 重新开始"
		}
	}
	s.heroGuard = nil
	s.lastHits = nil
}

// reset 重新开始战斗
func (s *Sandbox) reset() error {
	s.newBattle()

	hero, err := entities.NewCharacter(s.battle, entities.CharacterSpec{Team: types.TeamRed, Col: 2, Row: 2, Health: 500})
	if err != nil {
		return err
	}
	alpha, err := entities.NewCharacter(s.battle, entities.CharacterSpec{Team: types.TeamBlue, Col: 5, Row: 2, Health: 2000})
	if err != nil {
		return err
	}
	if err := s.attachActors(hero, alpha); err != nil {
		return err
	}
	s.message = "战斗开始"
	return nil
}

// attachActors 为英雄和 Alpha 挂载动画、行为和防御规则
func (s *Sandbox) attachActors(hero, alpha ecs.EntityID) error {
	s.hero, s.alpha = hero, alpha

	heroDoc, err := s.animation(heroAnimation)
	if err != nil {
		return err
	}
	s.battle.Animation.Attach(hero, heroDoc)
	s.playIdle(hero)

	alphaDoc, err := s.animation(alphaAnimation)
	if err != nil {
		return err
	}
	s.battle.Animation.Attach(alpha, alphaDoc)
	s.playIdle(alpha)

	core, err := s.script(alphaCoreScript)
	if err != nil {
		return err
	}
	s.battle.Defense.AddRule(alpha, s.host.NewDefenseRule(core, "alpha_core", scripting.Context{Owner: alpha, Team: types.TeamBlue}))

	_, err = s.battle.Behaviors.Attach(alpha, &alphaBehavior{sandbox: s, cooldown: alphaAttackInterval}, components.LifetimePersistent)
	return err
}

// playIdle 循环播放 IDLE
func (s *Sandbox) playIdle(id ecs.EntityID) {
	if err := s.battle.Animation.Load(id, "IDLE"); err != nil {
		log.Printf("[Sandbox] %v", err)
		return
	}
	s.battle.Animation.SetMode(id, types.PlaybackLoop)
}

// Update 实现 ebiten.Game：处理输入、热重载，然后推进一步
func (s *Sandbox) Update() error {
	s.applyReloads()
	s.handleInput()

	if s.paused && !inpututil.IsKeyJustPressed(ebiten.KeyN) {
		return nil
	}
	report := s.battle.Step(s.cfg.StepDuration())
	if len(report.Hits) > 0 {
		s.lastHits = report.Hits
	}
	return nil
}

// applyReloads 在两步之间应用资源变更
// 已挂载的实体保留旧文档，重新开始后使用新文档
func (s *Sandbox) applyReloads() {
	reloaded, others := s.library.ApplyChanges(s.watcher)
	for _, p := range reloaded {
		s.message = "已重新加载 " + p + "（按 R 生效）"
	}
	for _, p := range others {
		if !strings.HasSuffix(p, ".tengo") {
			continue
		}
		if _, ok := s.scripts[p]; !ok {
			continue
		}
		prog, err := s.host.CompileFile(embedded.FS(), p)
		if err != nil {
			log.Printf("[Sandbox] 脚本重新编译失败: %v", err)
			continue
		}
		s.scripts[p] = prog
		s.message = "已重新编译 " + p
	}
}

func (s *Sandbox) handleInput() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if err := s.reset(); err != nil {
			log.Printf("[Sandbox] 重新开始失败: %v", err)
		}
		return
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		s.paused = !s.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		if err := s.serializer.SaveBattle(s.battle, saveSlot); err != nil {
			s.message = fmt.Sprintf("保存失败: %v", err)
		} else {
			s.message = "已保存"
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		s.loadBattle()
		return
	}

	em := s.battle.EntityManager()
	if !em.IsAlive(s.hero) || em.IsMarkedForDestroy(s.hero) {
		return
	}

	for key, dir := range map[ebiten.Key]types.Direction{
		ebiten.KeyArrowLeft:  types.DirectionLeft,
		ebiten.KeyArrowRight: types.DirectionRight,
		ebiten.KeyArrowUp:    types.DirectionUp,
		ebiten.KeyArrowDown:  types.DirectionDown,
	} {
		if inpututil.IsKeyJustPressed(key) {
			s.moveHero(dir)
		}
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyZ):
		s.shoot(false)
	case inpututil.IsKeyJustPressed(ebiten.KeyX):
		s.shoot(true)
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		s.toggleGuard()
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		if _, err := systems.NewAura(s.battle.AuraContext(), s.hero, components.Aura100); err != nil {
			log.Printf("[Sandbox] %v", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		if col, row, ok := s.battle.Field.TileOf(s.hero); ok {
			s.battle.Field.SetTileState(col, row, types.TileCracked)
		}
	}
}

func (s *Sandbox) moveHero(dir types.Direction) {
	col, row, ok := s.battle.Field.TileOf(s.hero)
	if !ok {
		return
	}
	dc, dr := dir.Delta()
	s.battle.Field.AddEntity(s.hero, col+dc, row+dr)
}

// shoot 播放射击动画，在第 2 帧发射
func (s *Sandbox) shoot(charged bool) {
	hero := s.hero
	if err := s.battle.Animation.Load(hero, "SHOOT"); err != nil {
		log.Printf("[Sandbox] %v", err)
		return
	}
	s.battle.Animation.OnFrame(hero, 1, components.InvocableFunc(func() {
		col, row, ok := s.battle.Field.TileOf(hero)
		if !ok {
			return
		}
		if _, err := entities.NewBuster(s.battle, types.TeamRed, col, row, charged, hero); err != nil {
			log.Printf("[Sandbox] %v", err)
		}
		if pt, ok := s.battle.Animation.Point(hero, "BUSTER"); ok {
			log.Printf("[Sandbox] 发射点 (%.0f, %.0f)", pt.X, pt.Y)
		}
	}), true)
	s.battle.Animation.OnComplete(hero, components.InvocableFunc(func() { s.playIdle(hero) }))
}

func (s *Sandbox) toggleGuard() {
	if s.heroGuard != nil {
		s.battle.Defense.RemoveRule(s.hero, s.heroGuard)
		s.heroGuard = nil
		s.message = "防御关闭"
		return
	}
	guardDoc, err := s.animation(guardAnimation)
	if err != nil {
		log.Printf("[Sandbox] %v", err)
		return
	}
	s.heroGuard = entities.AddGuard(s.battle, s.hero, guardDoc)
	s.message = "防御开启"
}

// loadBattle 读取存档并在新战斗上恢复
func (s *Sandbox) loadBattle() {
	data, err := s.serializer.LoadBattle(saveSlot)
	if err != nil {
		s.message = fmt.Sprintf("读取失败: %v", err)
		return
	}

	s.newBattle()
	if err := s.serializer.Restore(s.battle, data); err != nil {
		s.message = fmt.Sprintf("恢复失败: %v", err)
		return
	}

	var hero, alpha ecs.EntityID
	em := s.battle.EntityManager()
	for _, id := range ecs.GetEntitiesWith2[*components.EntityKindComponent, *components.TeamComponent](em) {
		kind, _ := ecs.GetComponent[*components.EntityKindComponent](em, id)
		team, _ := ecs.GetComponent[*components.TeamComponent](em, id)
		if kind.Kind != types.KindCharacter {
			continue
		}
		switch {
		case team.Team == types.TeamRed && hero == 0:
			hero = id
		case team.Team == types.TeamBlue && alpha == 0:
			alpha = id
		}
	}
	if hero == 0 || alpha == 0 {
		s.message = "存档中缺少角色"
		return
	}
	if err := s.attachActors(hero, alpha); err != nil {
		s.message = fmt.Sprintf("恢复失败: %v", err)
		return
	}
	s.message = "已读取存档"
}

// Draw 实现 ebiten.Game
func (s *Sandbox) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 24, G: 24, B: 32, A: 255})

	cols, rows := s.battle.Field.Size()
	for row := 1; row <= rows; row++ {
		for col := 1; col <= cols; col++ {
			s.drawTile(screen, col, row)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Step %d  TPS %.0f", s.battle.CurrentStep(), ebiten.ActualTPS())
	if s.paused {
		sb.WriteString("  [PAUSED]")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Hero  %s\n", s.describe(s.hero))
	fmt.Fprintf(&sb, "Alpha %s\n", s.describe(s.alpha))
	sb.WriteString(s.message + "\n")
	ebitenutil.DebugPrintAt(screen, sb.String(), 16, 16)

	var hits strings.Builder
	for _, h := range s.lastHits {
		fmt.Fprintf(&hits, "hit (%d,%d) -> %d: dmg %d applied %d %s\n",
			h.Col, h.Row, h.Target, h.Props.Damage, h.Applied, h.Props.Element)
	}
	ebitenutil.DebugPrintAt(screen, hits.String(), 16, fieldTop+rows*tileHeight+24)

	ebitenutil.DebugPrintAt(screen,
		"Arrows move  Z shoot  X charged  G guard  A aura  C crack  P pause  N step  F5 save  F9 load  R reset",
		16, screenHeight-24)
}

func (s *Sandbox) drawTile(screen *ebiten.Image, col, row int) {
	tile := s.battle.Field.GetAt(col, row)
	if tile == nil || tile.State == types.TileHidden {
		return
	}
	x := float32(fieldLeft + (col-1)*tileWidth)
	y := float32(fieldTop + (row-1)*tileHeight)

	fill := redTileColor
	if tile.Team == types.TeamBlue {
		fill = blueTileColor
	}
	if tile.State == types.TileBroken {
		fill = brokenTileColor
	}
	vector.DrawFilledRect(screen, x, y, tileWidth, tileHeight, fill, false)
	if tile.State == types.TileCracked {
		vector.DrawFilledRect(screen, x, y, tileWidth, tileHeight, crackedOverlay, false)
	}
	vector.StrokeRect(screen, x, y, tileWidth, tileHeight, 2, tileBorderColor, false)

	em := s.battle.EntityManager()
	var labels []string
	for _, id := range tile.Occupants {
		kind, ok := ecs.GetComponent[*components.EntityKindComponent](em, id)
		if !ok {
			continue
		}
		switch {
		case id == s.hero:
			labels = append(labels, "HERO")
		case id == s.alpha:
			labels = append(labels, "ALPHA")
		default:
			labels = append(labels, kind.Kind.String())
		}
	}
	ebitenutil.DebugPrintAt(screen, strings.Join(labels, "\n"), int(x)+6, int(y)+6)
}

// describe 实体的生命值、动画和光环
func (s *Sandbox) describe(id ecs.EntityID) string {
	em := s.battle.EntityManager()
	if !em.IsAlive(id) {
		return "-"
	}
	health, _ := ecs.GetComponent[*components.HealthComponent](em, id)
	out := fmt.Sprintf("HP %d/%d", health.CurrentHealth, health.MaxHealth)
	if state, index, ok := s.battle.Animation.State(id); ok {
		out += fmt.Sprintf("  %s#%d", state, index)
	}
	if aura, ok := ecs.GetComponent[*components.AuraComponent](em, id); ok {
		out += fmt.Sprintf("  %s %s pool=%d", aura.Type, aura.State, aura.Pool)
	}
	if s.heroGuard != nil && id == s.hero {
		out += "  GUARD"
	}
	return out
}

// Layout 实现 ebiten.Game
func (s *Sandbox) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
