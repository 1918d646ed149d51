package systems

import (
	"math/rand"
	"testing"

	"github.com/decker502/netbattle/internal/anim"
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
	"github.com/jakecoffman/cp"
)

// newTestDocument 创建测试动画资源，每个状态的帧时长由参数给出
func newTestDocument(states map[string][]float64) *anim.Document {
	doc := &anim.Document{}
	for name, durations := range states {
		st := anim.State{Name: name}
		for _, d := range durations {
			st.Frames = append(st.Frames, anim.Frame{Duration: d})
		}
		doc.States = append(doc.States, st)
	}
	doc.Index()
	return doc
}

// frameRecorder 在每一帧上注册每轮触发的回调，记录进入的帧序列
type frameRecorder struct {
	seq       []int
	completes int
	interrupt int
}

func (r *frameRecorder) attach(t *testing.T, s *AnimationSystem, id ecs.EntityID, frames int) {
	t.Helper()
	for i := 0; i < frames; i++ {
		idx := i
		if err := s.OnFrame(id, idx, components.InvocableFunc(func() { r.seq = append(r.seq, idx) }), false); err != nil {
			t.Fatalf("OnFrame(%d) failed: %v", idx, err)
		}
	}
	s.OnComplete(id, components.InvocableFunc(func() { r.completes++ }))
	s.OnInterrupt(id, components.InvocableFunc(func() { r.interrupt++ }))
}

func setupAnimation(t *testing.T, durations []float64, mode types.PlaybackMode) (*AnimationSystem, ecs.EntityID, *frameRecorder) {
	t.Helper()
	em := ecs.NewEntityManager()
	s := NewAnimationSystem(em)
	id := em.CreateEntity()
	s.Attach(id, newTestDocument(map[string][]float64{"A": durations, "B": {0.5}}))
	if err := s.Load(id, "A"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := s.SetMode(id, mode); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	r := &frameRecorder{}
	r.attach(t, s, id, len(durations))
	return s, id, r
}

func equalSeq(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestAnimationLoadDoesNotFire 测试 Load 不会回溯触发回调，首帧在第一次 Advance 时进入
func TestAnimationLoadDoesNotFire(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25, 0.25}, types.PlaybackOnce)

	if len(r.seq) != 0 {
		t.Fatalf("Load must not fire callbacks, got %v", r.seq)
	}

	s.Advance(id, 0)
	if !equalSeq(r.seq, []int{0}) {
		t.Errorf("Expected first frame entered on first Advance, got %v", r.seq)
	}
}

// TestAnimationOnceCompletesExactlyOnce 测试 Once 模式完成回调只触发一次
func TestAnimationOnceCompletesExactlyOnce(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25, 0.25, 0.25}, types.PlaybackOnce)

	s.Advance(id, 0.5)
	if r.completes != 0 {
		t.Fatal("Completion fired before the terminal frame was consumed")
	}

	// 末帧时长恰好消耗完
	s.Advance(id, 0.25)
	if r.completes != 1 {
		t.Fatalf("Expected 1 completion, got %d", r.completes)
	}
	if !equalSeq(r.seq, []int{0, 1, 2}) {
		t.Errorf("Unexpected frame sequence %v", r.seq)
	}

	for i := 0; i < 10; i++ {
		s.Advance(id, 1.0)
	}
	if r.completes != 1 {
		t.Errorf("Completion re-fired without reload: %d", r.completes)
	}
	if !s.IsFinished(id) {
		t.Error("Playback should be finished")
	}
	if _, idx, _ := s.State(id); idx != 2 {
		t.Errorf("Once playback should rest on the terminal frame, got %d", idx)
	}
}

// TestAnimationLoopCallbacks 测试循环模式下单次回调与每轮回调
func TestAnimationLoopCallbacks(t *testing.T) {
	em := ecs.NewEntityManager()
	s := NewAnimationSystem(em)
	id := em.CreateEntity()
	s.Attach(id, newTestDocument(map[string][]float64{"A": {0.25, 0.25}}))
	s.Load(id, "A")
	s.SetMode(id, types.PlaybackLoop)

	onceCount, everyCount, cycles := 0, 0, 0
	s.OnFrame(id, 1, components.InvocableFunc(func() { onceCount++ }), true)
	s.OnFrame(id, 1, components.InvocableFunc(func() { everyCount++ }), false)
	s.OnComplete(id, components.InvocableFunc(func() { cycles++ }))

	// 3 整轮
	s.Advance(id, 1.5)

	if onceCount != 1 {
		t.Errorf("Once callback should fire once per playback, got %d", onceCount)
	}
	if everyCount != 3 {
		t.Errorf("Every-loop callback should fire each cycle, got %d", everyCount)
	}
	if cycles != 3 {
		t.Errorf("Expected 3 completed cycles, got %d", cycles)
	}
}

// TestAnimationBounceOnce 测试非循环 Bounce 回到起点后完成
func TestAnimationBounceOnce(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25, 0.25, 0.25, 0.25}, types.PlaybackBounce)

	s.Advance(id, 10)

	want := []int{0, 1, 2, 3, 2, 1, 0}
	if !equalSeq(r.seq, want) {
		t.Errorf("Expected %v, got %v", want, r.seq)
	}
	if r.completes != 1 {
		t.Errorf("Expected 1 completion, got %d", r.completes)
	}
}

// TestAnimationBouncePalindromic 测试循环 Bounce 在任意推进步长下都是回文序列
func TestAnimationBouncePalindromic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 20; trial++ {
		n := 2 + rng.Intn(5)
		durations := make([]float64, n)
		for i := range durations {
			durations[i] = float64(1+rng.Intn(4)) / 8
		}
		s, id, r := setupAnimation(t, durations, types.PlaybackBounce|types.PlaybackLoop)

		for step := 0; step < 200; step++ {
			s.Advance(id, float64(rng.Intn(6))/16)
		}

		for i := 1; i < len(r.seq); i++ {
			d := r.seq[i] - r.seq[i-1]
			if d != 1 && d != -1 {
				t.Fatalf("trial %d: non-adjacent step %d -> %d in %v", trial, r.seq[i-1], r.seq[i], r.seq)
			}
		}
		for i := 1; i+1 < len(r.seq); i++ {
			turn := (r.seq[i-1] == r.seq[i+1])
			if turn && r.seq[i] != 0 && r.seq[i] != n-1 {
				t.Fatalf("trial %d: turned at interior frame %d in %v", trial, r.seq[i], r.seq)
			}
		}
	}
}

// TestAnimationReverse 测试 Reverse 模式从末帧向首帧播放
func TestAnimationReverse(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25, 0.25, 0.25, 0.25}, types.PlaybackReverse)

	s.Advance(id, 10)

	if !equalSeq(r.seq, []int{3, 2, 1, 0}) {
		t.Errorf("Unexpected reverse sequence %v", r.seq)
	}
	if r.completes != 1 {
		t.Errorf("Expected 1 completion, got %d", r.completes)
	}
}

// TestAnimationReverseLoop 测试 Reverse|Loop 从首帧回绕到末帧
func TestAnimationReverseLoop(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25, 0.25, 0.25}, types.PlaybackReverse|types.PlaybackLoop)

	s.Advance(id, 1.5)

	want := []int{2, 1, 0, 2, 1, 0, 2}
	if !equalSeq(r.seq, want) {
		t.Errorf("Expected %v, got %v", want, r.seq)
	}
	if r.completes != 2 {
		t.Errorf("Expected 2 cycles, got %d", r.completes)
	}
}

// TestAnimationZeroDurationFrames 测试零时长帧的回调与前一帧在同一次 Advance 中触发
func TestAnimationZeroDurationFrames(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25, 0, 0, 0.25}, types.PlaybackOnce)

	s.Advance(id, 0.125)
	if !equalSeq(r.seq, []int{0}) {
		t.Fatalf("Expected only frame 0, got %v", r.seq)
	}

	s.Advance(id, 0.125)
	if !equalSeq(r.seq, []int{0, 1, 2, 3}) {
		t.Errorf("Zero-duration frames should fire in the same call, got %v", r.seq)
	}
}

// TestAnimationAllZeroLoopTerminates 测试全零时长的循环不会空转
func TestAnimationAllZeroLoopTerminates(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0, 0, 0}, types.PlaybackLoop)

	s.Advance(id, 1)

	if len(r.seq) == 0 {
		t.Fatal("Frames should still be entered")
	}
	if len(r.seq) > 2*3+1 {
		t.Errorf("All-zero loop fired too many callbacks: %d", len(r.seq))
	}
}

// TestAnimationCallbackCountMatchesBoundaries 测试回调次数等于跨过的帧边界数
func TestAnimationCallbackCountMatchesBoundaries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 30; trial++ {
		n := 1 + rng.Intn(6)
		durations := make([]float64, n)
		cycle := 0.0
		for i := range durations {
			durations[i] = float64(1+rng.Intn(4)) / 8
			cycle += durations[i]
		}
		s, id, r := setupAnimation(t, durations, types.PlaybackLoop)

		total := 0.0
		for step := 0; step < 50; step++ {
			dt := float64(rng.Intn(8)) / 16
			total += dt
			s.Advance(id, dt)

			// 独立计算：累计时长 <= total 的边界数 + 首帧
			crossed := 1
			acc := 0.0
			for i := 0; ; i++ {
				acc += durations[i%n]
				if acc > total {
					break
				}
				crossed++
			}
			if len(r.seq) != crossed {
				t.Fatalf("trial %d step %d: fired %d callbacks, crossed %d boundaries (total %.4f)", trial, step, len(r.seq), crossed, total)
			}
		}
	}
}

// TestAnimationInterrupt 测试未完成时切换状态触发打断回调
func TestAnimationInterrupt(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25, 0.25}, types.PlaybackOnce)
	s.Advance(id, 0.25)

	if err := s.Load(id, "B"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r.interrupt != 1 {
		t.Errorf("Expected 1 interrupt, got %d", r.interrupt)
	}
	if r.completes != 0 {
		t.Error("Interrupted playback must not complete")
	}

	// 旧回调已清空
	before := len(r.seq)
	s.Advance(id, 5)
	if len(r.seq) != before {
		t.Errorf("Callbacks of the previous playback fired after reload: %v", r.seq)
	}
	if r.interrupt != 1 {
		t.Errorf("Interrupt fired more than once: %d", r.interrupt)
	}
}

// TestAnimationNoInterruptAfterCompletion 测试已完成的播放切换状态不触发打断
func TestAnimationNoInterruptAfterCompletion(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25}, types.PlaybackOnce)
	s.Advance(id, 1)

	s.Load(id, "B")
	if r.interrupt != 0 {
		t.Errorf("Completed playback should not be interrupted, got %d", r.interrupt)
	}
}

// TestAnimationUnknownState 测试未知状态加载失败且状态不变
func TestAnimationUnknownState(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25, 0.25}, types.PlaybackOnce)
	s.Advance(id, 0.25)

	if err := s.Load(id, "MISSING"); err == nil {
		t.Fatal("Expected error for unknown state")
	}

	name, idx, ok := s.State(id)
	if !ok || name != "A" || idx != 1 {
		t.Errorf("State changed after failed load: %s %d %v", name, idx, ok)
	}
	if r.interrupt != 0 {
		t.Error("Failed load must not interrupt")
	}

	// 原有回调仍然有效
	s.Advance(id, 0.25)
	if r.completes != 1 {
		t.Errorf("Expected completion after failed load, got %d", r.completes)
	}
}

// TestAnimationReloadInsideCallback 测试回调中切换状态会停止旧播放的推进
func TestAnimationReloadInsideCallback(t *testing.T) {
	em := ecs.NewEntityManager()
	s := NewAnimationSystem(em)
	id := em.CreateEntity()
	s.Attach(id, newTestDocument(map[string][]float64{"A": {0.25, 0.25, 0.25}, "B": {0.5, 0.5}}))
	s.Load(id, "A")

	lateFired := false
	s.OnFrame(id, 1, components.InvocableFunc(func() {
		if err := s.Load(id, "B"); err != nil {
			t.Errorf("Load inside callback failed: %v", err)
		}
	}), true)
	s.OnFrame(id, 2, components.InvocableFunc(func() { lateFired = true }), true)

	s.Advance(id, 10)

	if lateFired {
		t.Error("Old playback kept advancing after reload")
	}
	name, idx, _ := s.State(id)
	if name != "B" || idx != 0 {
		t.Errorf("Expected B at frame 0, got %s at %d", name, idx)
	}
}

// TestAnimationSpeed 测试播放速度倍率
func TestAnimationSpeed(t *testing.T) {
	s, id, r := setupAnimation(t, []float64{0.25, 0.25, 0.25}, types.PlaybackOnce)
	s.SetSpeed(id, 2.0)

	s.Advance(id, 0.25)
	if !equalSeq(r.seq, []int{0, 1, 2}) {
		t.Errorf("Double speed should cross two frames, got %v", r.seq)
	}
}

// TestAnimationPoint 测试当前帧锚点
func TestAnimationPoint(t *testing.T) {
	em := ecs.NewEntityManager()
	s := NewAnimationSystem(em)
	id := em.CreateEntity()
	doc := &anim.Document{States: []anim.State{{
		Name: "SHOOT",
		Frames: []anim.Frame{
			{Duration: 0.25},
			{Duration: 0.25, Points: map[string]cp.Vector{"BUSTER": {X: 20, Y: -32}}},
		},
	}}}
	s.Attach(id, doc)
	s.Load(id, "SHOOT")

	if _, ok := s.Point(id, "BUSTER"); ok {
		t.Error("Frame 0 has no BUSTER point")
	}
	s.Advance(id, 0.25)
	p, ok := s.Point(id, "BUSTER")
	if !ok || p.X != 20 || p.Y != -32 {
		t.Errorf("Unexpected point %v %v", p, ok)
	}
}

// TestAnimationOnFrameOutOfRange 测试越界帧注册失败
func TestAnimationOnFrameOutOfRange(t *testing.T) {
	s, id, _ := setupAnimation(t, []float64{0.25}, types.PlaybackOnce)
	if err := s.OnFrame(id, 5, components.InvocableFunc(func() {}), true); err == nil {
		t.Error("Expected error for out-of-range frame")
	}
}

// TestAnimationUpdateSkipsMarkedEntities 测试已标记删除的实体不再推进
func TestAnimationUpdateSkipsMarkedEntities(t *testing.T) {
	em := ecs.NewEntityManager()
	s := NewAnimationSystem(em)
	id := em.CreateEntity()
	s.Attach(id, newTestDocument(map[string][]float64{"A": {0.25}}))
	s.Load(id, "A")

	fired := false
	s.OnFrame(id, 0, components.InvocableFunc(func() { fired = true }), true)

	em.DestroyEntity(id)
	s.Update(1)
	if fired {
		t.Error("Marked entity should not be advanced")
	}
}
