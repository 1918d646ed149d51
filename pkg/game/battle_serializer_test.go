package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/entities"
	"github.com/decker502/netbattle/pkg/systems"
	"github.com/decker502/netbattle/pkg/types"
	"github.com/quasilyte/gdata/v2"
)

// createTestStore 创建用于测试的 gdata Manager，数据放在临时 HOME 下
func createTestStore(t *testing.T, testName string) *gdata.Manager {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")
	appName := fmt.Sprintf("netbattle_test_%s_%d", testName, time.Now().UnixNano())
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil
	}
	return manager
}

func newTestBattle() *systems.BattleSystem {
	return systems.NewBattleSystem(ecs.NewEntityManager(), systems.DefaultBattleOptions())
}

// buildSampleBattle 红方角色带光环，蓝方角色受伤，中间一块破碎格子和一个石块
func buildSampleBattle(t *testing.T) *systems.BattleSystem {
	t.Helper()
	b := newTestBattle()

	hero, err := entities.NewCharacter(b, entities.CharacterSpec{Team: types.TeamRed, Col: 2, Row: 2, Health: 300})
	if err != nil {
		t.Fatal(err)
	}
	aura, err := systems.NewAura(b.AuraContext(), hero, components.Aura200)
	if err != nil {
		t.Fatal(err)
	}
	b.Defense.Resolve(components.HitProperties{Damage: 50}, hero)
	if aura.Pool() != 150 {
		t.Fatalf("Setup: expected aura pool 150, got %d", aura.Pool())
	}

	enemy, err := entities.NewCharacter(b, entities.CharacterSpec{Team: types.TeamBlue, Col: 5, Row: 1, Health: 200})
	if err != nil {
		t.Fatal(err)
	}
	b.Defense.Resolve(components.HitProperties{Damage: 70}, enemy)

	if _, err := entities.NewObstacle(b, 4, 3, 80); err != nil {
		t.Fatal(err)
	}
	b.Field.SetTileState(3, 1, types.TileBroken)

	b.Step(1.0 / 60)
	return b
}

// TestCollectSnapshot 测试快照内容
func TestCollectSnapshot(t *testing.T) {
	b := buildSampleBattle(t)
	s := NewBattleSerializer(nil)

	data, err := s.Collect(b)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if data.Version != BattleSaveVersion || data.Step != 1 {
		t.Errorf("Unexpected metadata: version %d step %d", data.Version, data.Step)
	}
	if data.Cols != 6 || data.Rows != 3 || len(data.Tiles) != 18 {
		t.Errorf("Unexpected field %dx%d with %d tiles", data.Cols, data.Rows, len(data.Tiles))
	}
	if len(data.Entities) != 3 {
		t.Fatalf("Expected 3 entities, got %d", len(data.Entities))
	}

	hero := data.Entities[0]
	if hero.Aura == nil || hero.Aura.Type != components.Aura200 || hero.Aura.Pool != 150 {
		t.Errorf("Hero aura not captured: %+v", hero.Aura)
	}
	if data.Entities[1].Health != 130 || data.Entities[1].MaxHealth != 200 {
		t.Errorf("Enemy health not captured: %+v", data.Entities[1])
	}
	if data.Entities[2].Kind != types.KindObstacle || data.Entities[2].Team != types.TeamUnknown {
		t.Errorf("Obstacle not captured: %+v", data.Entities[2])
	}
}

// TestRestoreSnapshot 测试编码、解码后在新战斗上恢复
func TestRestoreSnapshot(t *testing.T) {
	s := NewBattleSerializer(nil)
	data, err := s.Collect(buildSampleBattle(t))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := s.Encode(data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := s.Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	restored := newTestBattle()
	if err := s.Restore(restored, decoded); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if restored.CurrentStep() != data.Step || restored.Field.CurrentStep() != data.Step {
		t.Errorf("Step not restored: battle %d field %d, want %d", restored.CurrentStep(), restored.Field.CurrentStep(), data.Step)
	}
	if report := restored.Step(1.0 / 60); report.Step != data.Step+1 {
		t.Errorf("Next step should continue from %d, got %d", data.Step, report.Step)
	}

	if tile := restored.Field.GetAt(3, 1); tile.State != types.TileBroken || tile.BrokenTimer <= 0 {
		t.Errorf("Broken tile not restored: %+v", tile)
	}

	again, _ := s.Collect(restored)
	if len(again.Entities) != len(data.Entities) {
		t.Fatalf("Expected %d entities, got %d", len(data.Entities), len(again.Entities))
	}
	for i := range data.Entities {
		want, got := data.Entities[i], again.Entities[i]
		if want.Kind != got.Kind || want.Team != got.Team || want.Col != got.Col || want.Row != got.Row ||
			want.Health != got.Health || want.MaxHealth != got.MaxHealth {
			t.Errorf("Entity %d: want %+v, got %+v", i, want, got)
		}
	}
	if a := again.Entities[0].Aura; a == nil || a.Pool != 150 {
		t.Errorf("Aura pool not restored: %+v", a)
	}

	// 恢复的光环继续工作
	hero := restored.Field.Occupants(2, 2)[0]
	if applied := restored.Defense.Resolve(components.HitProperties{Damage: 100}, hero); applied != 0 {
		t.Errorf("Restored aura should absorb, applied %d", applied)
	}
}

// TestRestoreRejectsMismatch 测试尺寸不一致或场地非空时拒绝恢复
func TestRestoreRejectsMismatch(t *testing.T) {
	s := NewBattleSerializer(nil)
	data, _ := s.Collect(buildSampleBattle(t))

	small := systems.NewBattleSystem(ecs.NewEntityManager(), systems.BattleOptions{
		Cols: 4, Rows: 2, RedColumns: 2, Aura: systems.DefaultAuraSettings(),
	})
	if err := s.Restore(small, data); err == nil {
		t.Error("Expected size mismatch error")
	}

	busy := newTestBattle()
	entities.NewObstacle(busy, 1, 1, 10)
	if err := s.Restore(busy, data); err == nil {
		t.Error("Expected error for a non-empty field")
	}
}

// TestDecodeRejectsVersion 测试版本不匹配
func TestDecodeRejectsVersion(t *testing.T) {
	s := NewBattleSerializer(nil)
	raw, err := s.Encode(&BattleSaveData{Version: BattleSaveVersion + 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Decode(raw); err == nil {
		t.Error("Expected version error")
	}
	if _, err := s.Decode([]byte("not gob")); err == nil {
		t.Error("Expected decode error")
	}
}

// TestSerializerDegradedMode 测试无存储时保存为空操作，读取报错
func TestSerializerDegradedMode(t *testing.T) {
	s := NewBattleSerializer(nil)
	if err := s.SaveBattle(newTestBattle(), "slot1"); err != nil {
		t.Errorf("Save without a store should be a no-op, got %v", err)
	}
	if s.HasBattle("slot1") {
		t.Error("HasBattle should be false without a store")
	}
	if _, err := s.LoadBattle("slot1"); err == nil {
		t.Error("Load without a store should fail")
	}
}

// TestSaveAndLoadBattle 测试通过 gdata 保存和读取
func TestSaveAndLoadBattle(t *testing.T) {
	store := createTestStore(t, "save_load")
	if store == nil {
		t.Skip("Cannot create gdata manager for testing")
	}
	s := NewBattleSerializer(store)

	if s.HasBattle("slot1") {
		t.Fatal("Fresh store should be empty")
	}
	if _, err := s.LoadBattle("slot1"); err == nil {
		t.Error("Loading an empty slot should fail")
	}

	if err := s.SaveBattle(buildSampleBattle(t), "slot1"); err != nil {
		t.Fatalf("SaveBattle failed: %v", err)
	}
	if !s.HasBattle("slot1") {
		t.Fatal("Slot should exist after save")
	}

	data, err := s.LoadBattle("slot1")
	if err != nil {
		t.Fatalf("LoadBattle failed: %v", err)
	}
	if len(data.Entities) != 3 || data.Step != 1 {
		t.Errorf("Unexpected snapshot: %d entities, step %d", len(data.Entities), data.Step)
	}
}
