package systems

import (
	"testing"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
)

// auraFixture 光环测试环境
type auraFixture struct {
	em        *ecs.EntityManager
	defense   *DefenseSystem
	behaviors *BehaviorSystem
	owner     ecs.EntityID
}

func newAuraFixture() *auraFixture {
	em := ecs.NewEntityManager()
	f := &auraFixture{
		em:        em,
		defense:   NewDefenseSystem(em),
		behaviors: NewBehaviorSystem(em),
	}
	f.owner = newDefenseTarget(em, 500)
	return f
}

func (f *auraFixture) ctx() AuraContext {
	return AuraContext{
		Entities:  f.em,
		Defense:   f.defense,
		Behaviors: f.behaviors,
		Settings:  DefaultAuraSettings(),
	}
}

// step 模拟一步的行为更新和清理
func (f *auraFixture) step(dt float64) {
	f.behaviors.Update(dt)
	f.defense.PruneReplaced()
	f.behaviors.Prune()
}

func (f *auraFixture) hit(damage int) int {
	return f.defense.Resolve(components.HitProperties{Damage: damage}, f.owner)
}

// TestAuraAbsorbScenario 测试光环 100 受到 40 和 60 伤害
func TestAuraAbsorbScenario(t *testing.T) {
	f := newAuraFixture()
	aura, err := NewAura(f.ctx(), f.owner, components.Aura100)
	if err != nil {
		t.Fatalf("NewAura failed: %v", err)
	}

	if applied := f.hit(40); applied != 0 {
		t.Errorf("Aura should absorb, applied %d", applied)
	}
	if aura.Pool() != 60 || aura.State() != components.AuraActive {
		t.Errorf("Expected pool=60 Active, got %d %v", aura.Pool(), aura.State())
	}

	f.hit(60)
	if aura.Pool() != 0 || aura.State() != components.AuraDepleting {
		t.Errorf("Expected pool=0 Depleting, got %d %v", aura.Pool(), aura.State())
	}
	if healthOf(f.em, f.owner) != 500 {
		t.Errorf("Owner health should be untouched, got %d", healthOf(f.em, f.owner))
	}
}

// TestAuraPoolMonotonic 测试 Active 时吸收量单调不增，归零后不再回到 Active
func TestAuraPoolMonotonic(t *testing.T) {
	f := newAuraFixture()
	aura, _ := NewAura(f.ctx(), f.owner, components.Aura200)

	prev := aura.Pool()
	for _, dmg := range []int{0, 30, 5, 70, 0, 200, 10} {
		f.hit(dmg)
		if aura.State() == components.AuraActive && aura.Pool() > prev {
			t.Fatalf("Pool increased from %d to %d", prev, aura.Pool())
		}
		prev = aura.Pool()
		f.step(0.1)
	}
	if aura.State() == components.AuraActive {
		t.Fatal("Aura should have left Active")
	}
	for i := 0; i < 5; i++ {
		f.step(0.1)
		if aura.State() == components.AuraActive {
			t.Fatal("Aura returned to Active")
		}
	}
}

// TestAuraDepletingPassesThrough 测试耗尽后攻击直接穿过
func TestAuraDepletingPassesThrough(t *testing.T) {
	f := newAuraFixture()
	NewAura(f.ctx(), f.owner, components.Aura100)

	f.hit(100)
	if applied := f.hit(25); applied != 25 {
		t.Errorf("Depleting aura should pass hits through, applied %d", applied)
	}
}

// TestAuraDetachAfterGrace 测试缓冲时间结束后移除并通知
func TestAuraDetachAfterGrace(t *testing.T) {
	f := newAuraFixture()
	aura, _ := NewAura(f.ctx(), f.owner, components.Aura100)
	notified := 0
	aura.OnRemoved = components.InvocableFunc(func() { notified++ })

	f.hit(100)
	f.step(1.0)
	if aura.IsDetached() {
		t.Fatal("Aura detached before the grace elapsed")
	}

	f.step(1.0)
	if !aura.IsDetached() || aura.State() != components.AuraDetached {
		t.Fatalf("Aura should be detached, state %v", aura.State())
	}
	if notified != 1 {
		t.Errorf("Owner should be notified once, got %d", notified)
	}
	if len(f.defense.Rules(f.owner)) != 0 {
		t.Error("Rule should be removed from the chain")
	}
	if f.behaviors.Count(f.owner) != 0 {
		t.Error("Behavior should be destroyed")
	}
	if ecs.HasComponent[*components.AuraComponent](f.em, f.owner) {
		t.Error("Aura status should be removed")
	}

	f.step(5.0)
	aura.Detach()
	if notified != 1 {
		t.Error("Detach must happen exactly once")
	}
}

// TestAuraTimerExpires 测试非持久光环计时归零进入耗尽
func TestAuraTimerExpires(t *testing.T) {
	f := newAuraFixture()
	aura, _ := NewAura(f.ctx(), f.owner, components.Aura1000)

	for i := 0; i < 49; i++ {
		f.step(1.0)
	}
	if aura.State() != components.AuraActive {
		t.Fatalf("Aura expired early: %v", aura.State())
	}
	f.step(1.0)
	if aura.State() != components.AuraDepleting {
		t.Fatalf("Expected Depleting after 50s, got %v", aura.State())
	}
	if aura.Pool() != 1000 {
		t.Errorf("Timer expiry does not touch the pool, got %d", aura.Pool())
	}
}

// TestBarrierScenario 测试持久屏障只在耗尽后倒计时
func TestBarrierScenario(t *testing.T) {
	f := newAuraFixture()
	barrier, _ := NewAura(f.ctx(), f.owner, components.Barrier200)

	for i := 0; i < 10; i++ {
		f.step(1.0)
	}
	if barrier.Timer() != 50 {
		t.Errorf("Persistent barrier timer should not decay while active, got %f", barrier.Timer())
	}

	f.hit(200)
	if barrier.State() != components.AuraDepleting {
		t.Fatalf("Expected Depleting, got %v", barrier.State())
	}
	if barrier.Timer() != 2 {
		t.Errorf("Timer should reset to the removal grace, got %f", barrier.Timer())
	}

	f.step(0.5)
	if barrier.Timer() != 1.5 {
		t.Errorf("Timer should count down once depleted, got %f", barrier.Timer())
	}
}

// TestBarrier10Pool 测试 Barrier10 的吸收量为 100
func TestBarrier10Pool(t *testing.T) {
	f := newAuraFixture()
	barrier, _ := NewAura(f.ctx(), f.owner, components.Barrier10)
	if barrier.Pool() != 100 {
		t.Errorf("Expected 100, got %d", barrier.Pool())
	}
}

// TestAuraReplaced 测试被替换的光环直接移除，不走耗尽流程也不通知
func TestAuraReplaced(t *testing.T) {
	f := newAuraFixture()
	old, _ := NewAura(f.ctx(), f.owner, components.Aura100)
	notified := 0
	old.OnRemoved = components.InvocableFunc(func() { notified++ })

	newer, _ := NewAura(f.ctx(), f.owner, components.Barrier500)
	if !old.IsReplaced() {
		t.Fatal("Older aura should be marked replaced")
	}

	// 被替换的光环不再参与结算
	f.hit(50)
	if old.Pool() != 100 {
		t.Errorf("Replaced aura absorbed a hit, pool %d", old.Pool())
	}
	if newer.Pool() != 450 {
		t.Errorf("Newer barrier should absorb, pool %d", newer.Pool())
	}

	f.step(0.1)
	if !old.IsDetached() {
		t.Fatal("Replaced aura should be detached on the next update")
	}
	if notified != 0 {
		t.Error("Replaced aura must not notify")
	}

	status, ok := ecs.GetComponent[*components.AuraComponent](f.em, f.owner)
	if !ok || status != newer.Status() {
		t.Error("Owner should keep the newer aura status")
	}
	if rules := f.defense.Rules(f.owner); len(rules) != 1 || rules[0] != components.DefenseRule(newer) {
		t.Errorf("Only the newer aura should remain, got %v", rules)
	}
}

// TestAuraReplacedWhileDepleting 测试被替换且耗尽的光环只移除一次
func TestAuraReplacedWhileDepleting(t *testing.T) {
	f := newAuraFixture()
	old, _ := NewAura(f.ctx(), f.owner, components.Aura100)
	f.hit(100)
	NewAura(f.ctx(), f.owner, components.Aura200)

	f.step(5.0)
	if !old.IsDetached() {
		t.Fatal("Old aura should be detached")
	}
	old.Detach()
	old.OnDetach(f.owner)
	if len(f.defense.Rules(f.owner)) != 1 {
		t.Errorf("Double detach touched the newer aura: %d rules", len(f.defense.Rules(f.owner)))
	}
}

// TestAuraWindStrip 测试风属性攻击吹走光环
func TestAuraWindStrip(t *testing.T) {
	f := newAuraFixture()
	aura, _ := NewAura(f.ctx(), f.owner, components.Aura1000)

	applied := f.defense.Resolve(components.HitProperties{
		Damage:    10,
		Element:   types.ElementWind,
		Direction: types.DirectionLeft,
	}, f.owner)
	if applied != 0 {
		t.Errorf("Wind hit should be absorbed by the strip, applied %d", applied)
	}
	if aura.Pool() != 0 || aura.State() != components.AuraDepleting {
		t.Fatalf("Expected stripped aura, got pool %d state %v", aura.Pool(), aura.State())
	}

	status := aura.Status()
	if !status.FlyAway || status.FlyAccel.X >= 0 {
		t.Errorf("Leftward wind should fly the aura left, accel %v", status.FlyAccel)
	}

	f.step(0.5)
	if status.FlyOffset.X >= 0 || status.FlyOffset.Y >= 0 {
		t.Errorf("Aura should drift up and left, offset %v", status.FlyOffset)
	}
}

// TestAuraOwnerMarkedForDestroy 测试所属实体被标记删除时光环立即移除
func TestAuraOwnerMarkedForDestroy(t *testing.T) {
	f := newAuraFixture()
	aura, _ := NewAura(f.ctx(), f.owner, components.Barrier200)
	notified := false
	aura.OnRemoved = components.InvocableFunc(func() { notified = true })

	f.em.DestroyEntity(f.owner)
	f.step(0.016)

	if !aura.IsDetached() {
		t.Error("Aura should detach when its owner is flagged for destruction")
	}
	if notified {
		t.Error("Owner removal is not a depletion")
	}
}

// TestAuraReleasedWithOwner 测试实体清理时光环随行为一起释放
func TestAuraReleasedWithOwner(t *testing.T) {
	f := newAuraFixture()
	aura, _ := NewAura(f.ctx(), f.owner, components.Aura100)

	f.behaviors.ReleaseEntity(f.owner)
	if !aura.IsDetached() {
		t.Error("Releasing the owner's behaviors should detach the aura")
	}
}

// TestAuraUnknownType 测试未知类型
func TestAuraUnknownType(t *testing.T) {
	f := newAuraFixture()
	if _, err := NewAura(f.ctx(), f.owner, components.AuraType(99)); err == nil {
		t.Error("Expected error for unknown aura type")
	}
}
