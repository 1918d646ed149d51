package systems

import (
	"fmt"

	"github.com/decker502/netbattle/internal/anim"
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
	"github.com/jakecoffman/cp"
)

// AnimationSystem 驱动所有实体的动画播放
// 动画的帧回调是战斗时序的来源：攻击在指定帧上生成判定框
//
// 播放规则:
//   - Load 重置到首帧（Reverse 模式为末帧），不回溯触发回调
//   - 首帧在 Load 之后的第一次 Advance 时进入并触发其回调
//   - 每跨过一个帧边界，触发新帧上绑定的回调
//   - 零时长帧不消耗时间，其回调在同一次 Advance 中触发
type AnimationSystem struct {
	entityManager *ecs.EntityManager
}

// NewAnimationSystem 创建一个新的动画系统
func NewAnimationSystem(em *ecs.EntityManager) *AnimationSystem {
	return &AnimationSystem{
		entityManager: em,
	}
}

// Attach 为实体挂载动画资源，返回播放组件
// 已有播放组件时替换资源，并按打断处理正在进行的播放
func (s *AnimationSystem) Attach(id ecs.EntityID, doc *anim.Document) *components.AnimationComponent {
	if comp, ok := ecs.GetComponent[*components.AnimationComponent](s.entityManager, id); ok {
		interrupt := s.reset(comp)
		comp.Document = doc
		comp.StateName = ""
		comp.Frames = nil
		components.Invoke(interrupt)
		return comp
	}

	comp := &components.AnimationComponent{
		Document: doc,
		Speed:    1.0,
	}
	ecs.AddComponent(s.entityManager, id, comp)
	return comp
}

func (s *AnimationSystem) component(id ecs.EntityID) (*components.AnimationComponent, error) {
	comp, ok := ecs.GetComponent[*components.AnimationComponent](s.entityManager, id)
	if !ok {
		return nil, fmt.Errorf("entity %d has no animation", id)
	}
	return comp, nil
}

// Load 切换到指定状态
// 未知状态返回错误，当前播放保持不变（由调用方记录日志）
// 切换会清空旧播放的全部回调；旧播放未完成时触发其打断回调
// 播放模式重置为 Once，调用方在 Load 之后设置模式
func (s *AnimationSystem) Load(id ecs.EntityID, stateName string) error {
	comp, err := s.component(id)
	if err != nil {
		return err
	}
	state, ok := comp.Document.State(stateName)
	if !ok {
		return fmt.Errorf("animation state '%s' not found (entity %d)", stateName, id)
	}

	interrupt := s.reset(comp)
	comp.StateName = state.Name
	comp.Frames = state.Frames
	comp.Mode = types.PlaybackOnce
	s.rewind(comp)

	// 回调在状态重置之后调用，回调里再次 Load 是安全的
	components.Invoke(interrupt)
	return nil
}

// reset 清空回调并返回需要触发的打断回调
func (s *AnimationSystem) reset(comp *components.AnimationComponent) components.Invocable {
	var interrupt components.Invocable
	if comp.IsLoaded() && !comp.Finished {
		interrupt = comp.InterruptCallback
	}
	comp.Serial++
	comp.FrameCallbacks = nil
	comp.CompleteCallback = nil
	comp.InterruptCallback = nil
	return interrupt
}

// rewind 把播放位置放回起点
func (s *AnimationSystem) rewind(comp *components.AnimationComponent) {
	comp.Index = 0
	comp.Backward = comp.Mode.Has(types.PlaybackReverse)
	if comp.Backward {
		comp.Index = len(comp.Frames) - 1
	}
	comp.Elapsed = 0
	comp.Bounced = false
	comp.Finished = false
	comp.EnterPending = true
}

// SetMode 设置播放模式
// 在首次 Advance 之前调用时重新定位起点（Reverse 从末帧开始）
func (s *AnimationSystem) SetMode(id ecs.EntityID, mode types.PlaybackMode) error {
	comp, err := s.component(id)
	if err != nil {
		return err
	}
	comp.Mode = mode
	if comp.EnterPending {
		s.rewind(comp)
	} else if !mode.Has(types.PlaybackBounce) {
		comp.Backward = mode.Has(types.PlaybackReverse)
	}
	return nil
}

// SetSpeed 设置播放速度倍率，负数按 0 处理
func (s *AnimationSystem) SetSpeed(id ecs.EntityID, speed float64) error {
	comp, err := s.component(id)
	if err != nil {
		return err
	}
	if speed < 0 {
		speed = 0
	}
	comp.Speed = speed
	return nil
}

// OnFrame 在当前状态的指定帧（0-based）上注册回调
// once 为 true 时每次播放只触发一次，为 false 时每轮循环都触发
func (s *AnimationSystem) OnFrame(id ecs.EntityID, index int, cb components.Invocable, once bool) error {
	comp, err := s.component(id)
	if err != nil {
		return err
	}
	if !comp.IsLoaded() {
		return fmt.Errorf("entity %d: no animation state loaded", id)
	}
	if index < 0 || index >= len(comp.Frames) {
		return fmt.Errorf("frame index %d out of range [0,%d) in state '%s'", index, len(comp.Frames), comp.StateName)
	}
	if comp.FrameCallbacks == nil {
		comp.FrameCallbacks = make(map[int][]*components.FrameCallback)
	}
	comp.FrameCallbacks[index] = append(comp.FrameCallbacks[index], &components.FrameCallback{
		Callback: cb,
		Once:     once,
	})
	return nil
}

// OnComplete 注册完成回调（替换已有的）
func (s *AnimationSystem) OnComplete(id ecs.EntityID, cb components.Invocable) error {
	comp, err := s.component(id)
	if err != nil {
		return err
	}
	comp.CompleteCallback = cb
	return nil
}

// OnInterrupt 注册打断回调（替换已有的）
func (s *AnimationSystem) OnInterrupt(id ecs.EntityID, cb components.Invocable) error {
	comp, err := s.component(id)
	if err != nil {
		return err
	}
	comp.InterruptCallback = cb
	return nil
}

// Point 返回当前帧上的命名锚点
func (s *AnimationSystem) Point(id ecs.EntityID, name string) (cp.Vector, bool) {
	comp, err := s.component(id)
	if err != nil {
		return cp.Vector{}, false
	}
	frame := comp.CurrentFrame()
	if frame == nil {
		return cp.Vector{}, false
	}
	return frame.Point(name)
}

// State 返回当前状态名和帧索引
func (s *AnimationSystem) State(id ecs.EntityID) (string, int, bool) {
	comp, err := s.component(id)
	if err != nil || !comp.IsLoaded() {
		return "", 0, false
	}
	return comp.StateName, comp.Index, true
}

// IsFinished 检查 Once 播放是否已完成
func (s *AnimationSystem) IsFinished(id ecs.EntityID) bool {
	comp, err := s.component(id)
	return err == nil && comp.Finished
}

// Advance 推进单个实体的播放
func (s *AnimationSystem) Advance(id ecs.EntityID, dt float64) {
	comp, err := s.component(id)
	if err != nil {
		return
	}
	advancePlayback(comp, dt)
}

// Update 按实体创建顺序推进所有播放
// 已标记删除的实体不再推进
func (s *AnimationSystem) Update(deltaTime float64) {
	entities := ecs.GetEntitiesWith1[*components.AnimationComponent](s.entityManager)
	for _, id := range entities {
		if s.entityManager.IsMarkedForDestroy(id) {
			continue
		}
		comp, ok := ecs.GetComponent[*components.AnimationComponent](s.entityManager, id)
		if !ok {
			continue
		}
		advancePlayback(comp, deltaTime)
	}
}
