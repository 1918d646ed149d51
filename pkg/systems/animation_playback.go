package systems

import (
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/types"
)

// animEpsilon 帧边界比较容差，避免 1/60 步长累积误差导致少跨一帧
const animEpsilon = 1e-9

// advancePlayback 消耗 dt*Speed 的时间，逐个跨越帧边界并触发回调
//
// 回调可能重新 Load（Serial 变化），此时立即停止推进旧播放
func advancePlayback(a *components.AnimationComponent, dt float64) {
	if !a.IsLoaded() || a.Finished {
		return
	}
	budget := dt * a.Speed
	if budget < 0 {
		budget = 0
	}
	serial := a.Serial

	if a.EnterPending {
		a.EnterPending = false
		fireFrameCallbacks(a, a.Index)
		if a.Serial != serial {
			return
		}
	}

	// 全零时长序列最多走一个来回，防止空转
	zeroRun := 0
	zeroLimit := 2 * len(a.Frames)

	for {
		remaining := a.Frames[a.Index].Duration - a.Elapsed
		if remaining-budget > animEpsilon {
			a.Elapsed += budget
			return
		}

		if remaining <= 0 {
			zeroRun++
			if zeroRun > zeroLimit {
				return
			}
		} else {
			zeroRun = 0
			budget -= remaining
			if budget < 0 {
				budget = 0
			}
		}
		a.Elapsed = 0

		next, wrapped, done := nextFrameIndex(a)
		if done {
			a.Finished = true
			a.Elapsed = a.Frames[a.Index].Duration
			components.Invoke(a.CompleteCallback)
			return
		}

		a.Index = next
		if wrapped {
			// 循环模式每轮结束都触发完成回调（用于计数）
			components.Invoke(a.CompleteCallback)
			if a.Serial != serial {
				return
			}
		}

		fireFrameCallbacks(a, a.Index)
		if a.Serial != serial || a.Finished {
			return
		}
	}
}

// nextFrameIndex 计算下一帧
// 返回: (下一帧索引, 是否完成一轮循环, 是否播放结束)
func nextFrameIndex(a *components.AnimationComponent) (int, bool, bool) {
	n := len(a.Frames)
	loop := a.Mode.Has(types.PlaybackLoop)

	if n == 1 {
		if loop {
			return 0, true, false
		}
		return 0, false, true
	}

	if !a.Mode.Has(types.PlaybackBounce) {
		if a.Backward {
			if a.Index > 0 {
				return a.Index - 1, false, false
			}
			if loop {
				return n - 1, true, false
			}
			return a.Index, false, true
		}
		if a.Index < n-1 {
			return a.Index + 1, false, false
		}
		if loop {
			return 0, true, false
		}
		return a.Index, false, true
	}

	// Bounce: 到达远端折返，回到起点算一轮
	step := 1
	if a.Backward {
		step = -1
	}
	if c := a.Index + step; c >= 0 && c < n {
		return c, false, false
	}
	if !a.Bounced {
		a.Bounced = true
		a.Backward = !a.Backward
		return a.Index - step, false, false
	}
	if !loop {
		return a.Index, false, true
	}
	a.Bounced = false
	a.Backward = !a.Backward
	return a.Index - step, true, false
}

// fireFrameCallbacks 触发绑定在指定帧上的回调
// 遍历快照，回调中注册的新回调本次不触发
func fireFrameCallbacks(a *components.AnimationComponent, index int) {
	list := a.FrameCallbacks[index]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*components.FrameCallback, len(list))
	copy(snapshot, list)

	serial := a.Serial
	for _, fc := range snapshot {
		if fc.Once {
			if fc.Fired {
				continue
			}
			fc.Fired = true
		}
		components.Invoke(fc.Callback)
		if a.Serial != serial {
			return
		}
	}
}
