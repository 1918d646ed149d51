package components

import (
	"github.com/decker502/netbattle/internal/anim"
	"github.com/decker502/netbattle/pkg/types"
)

// FrameCallback 绑定到某一帧的回调
type FrameCallback struct {
	Callback Invocable
	// Once 为 true 时每次播放只触发一次（循环不会重复触发）
	Once bool
	// Fired 本次播放是否已触发过（仅 Once 回调使用）
	Fired bool
}

// AnimationComponent 动画播放状态
// 动画推进完全由 AnimationSystem 驱动，组件只保存数据
//
// 状态说明:
//   - Index: 当前帧索引
//   - Elapsed: 当前帧内已经消耗的时间（秒）
//   - Backward: 当前是否向首帧方向推进（Reverse 或 Bounce 折返）
//   - EnterPending: Load 之后首次 Advance 时进入首帧并触发其回调
//   - Finished: Once 模式播放完毕，完成回调已触发
type AnimationComponent struct {
	// Document 动画资源
	Document *anim.Document

	// StateName 当前状态名，空字符串表示未加载
	StateName string

	// Frames 当前状态的帧序列（引用 Document 中的数据，只读）
	Frames []anim.Frame

	Mode  types.PlaybackMode
	Speed float64 // 播放速度倍率，1.0 为正常速度

	Index        int
	Elapsed      float64
	Backward     bool
	Bounced      bool // 非循环 Bounce 已经在末端折返过
	EnterPending bool
	Finished     bool

	// Serial 每次 Load 递增；回调中重新 Load 后，旧的推进循环据此退出
	Serial uint64

	// FrameCallbacks 帧索引 -> 回调列表
	FrameCallbacks map[int][]*FrameCallback
	// CompleteCallback 完成回调（Once 播放结束 / Loop 每轮结束）
	CompleteCallback Invocable
	// InterruptCallback 打断回调（播放未完成时 Load 了新状态）
	InterruptCallback Invocable
}

// IsLoaded 检查是否已加载状态
func (a *AnimationComponent) IsLoaded() bool {
	return a.StateName != "" && len(a.Frames) > 0
}

// CurrentFrame 返回当前帧，未加载时返回 nil
func (a *AnimationComponent) CurrentFrame() *anim.Frame {
	if !a.IsLoaded() || a.Index < 0 || a.Index >= len(a.Frames) {
		return nil
	}
	return &a.Frames[a.Index]
}
