package game

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log"
	"time"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/entities"
	"github.com/decker502/netbattle/pkg/systems"
	"github.com/decker502/netbattle/pkg/types"
	"github.com/quasilyte/gdata/v2"
)

// 存储路径常量
const battleObject = "battles"

// BattleSerializer 战斗快照序列化器
//
// 负责把战斗状态编码为 gob 二进制数据，并通过 gdata 按存档槽保存。
//
// 架构说明：
//   - 这是一个工具类，不是 ECS 系统
//   - Collect 只读取战斗状态，Restore 只在空战斗上重建实体
//   - store 为 nil 时进入降级模式：保存为空操作，读取返回错误
type BattleSerializer struct {
	store *gdata.Manager
}

// NewBattleSerializer 创建序列化器
// store 可为 nil（降级模式，不持久化）
func NewBattleSerializer(store *gdata.Manager) *BattleSerializer {
	return &BattleSerializer{store: store}
}

// Collect 从战斗中收集快照
func (s *BattleSerializer) Collect(b *systems.BattleSystem) (*BattleSaveData, error) {
	if b == nil {
		return nil, fmt.Errorf("battle system is nil")
	}

	data := NewBattleSaveData()
	data.SaveTime = time.Now()
	data.Step = b.CurrentStep()
	data.Cols, data.Rows = b.Field.Size()

	for row := 1; row <= data.Rows; row++ {
		for col := 1; col <= data.Cols; col++ {
			tile := b.Field.GetAt(col, row)
			data.Tiles = append(data.Tiles, TileData{
				Col:         col,
				Row:         row,
				State:       tile.State,
				Team:        tile.Team,
				BrokenTimer: tile.BrokenTimer,
			})
		}
	}

	data.Entities = s.collectEntities(b.EntityManager())
	return data, nil
}

// collectEntities 收集场上所有存活的角色和障碍物
func (s *BattleSerializer) collectEntities(em *ecs.EntityManager) []EntityData {
	var out []EntityData

	ids := ecs.GetEntitiesWith3[
		*components.EntityKindComponent,
		*components.HealthComponent,
		*components.TileRefComponent,
	](em)

	for _, id := range ids {
		if em.IsMarkedForDestroy(id) {
			continue
		}
		kind, _ := ecs.GetComponent[*components.EntityKindComponent](em, id)
		if !kind.Kind.Blocking() {
			continue
		}
		health, _ := ecs.GetComponent[*components.HealthComponent](em, id)
		ref, _ := ecs.GetComponent[*components.TileRefComponent](em, id)

		entry := EntityData{
			Kind:      kind.Kind,
			Col:       ref.Col,
			Row:       ref.Row,
			Health:    health.CurrentHealth,
			MaxHealth: health.MaxHealth,
		}
		if team, ok := ecs.GetComponent[*components.TeamComponent](em, id); ok {
			entry.Team = team.Team
		}
		if aura, ok := ecs.GetComponent[*components.AuraComponent](em, id); ok && aura.State == components.AuraActive {
			entry.Aura = &AuraData{Type: aura.Type, Pool: aura.Pool, Timer: aura.Timer}
		}
		out = append(out, entry)
	}
	return out
}

// Encode 把快照编码为 gob 二进制数据
func (s *BattleSerializer) Encode(data *BattleSaveData) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("failed to encode save data: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode 解码快照并检查版本
func (s *BattleSerializer) Decode(raw []byte) (*BattleSaveData, error) {
	var data BattleSaveData
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode save data: %w", err)
	}
	if data.Version != BattleSaveVersion {
		return nil, fmt.Errorf("incompatible save version: %d (expected %d)",
			data.Version, BattleSaveVersion)
	}
	return &data, nil
}

// SaveBattle 收集快照并保存到存档槽
func (s *BattleSerializer) SaveBattle(b *systems.BattleSystem, slot string) error {
	if s.store == nil {
		log.Printf("[BattleSerializer] 存储不可用，跳过保存 (slot=%s)", slot)
		return nil
	}

	data, err := s.Collect(b)
	if err != nil {
		return err
	}
	raw, err := s.Encode(data)
	if err != nil {
		return err
	}
	if err := s.store.SaveObjectProp(battleObject, slot, raw); err != nil {
		return fmt.Errorf("failed to save battle: %w", err)
	}

	log.Printf("[BattleSerializer] 保存战斗到 %s: Step=%d, Entities=%d", slot, data.Step, len(data.Entities))
	return nil
}

// HasBattle 检查存档槽是否有快照
func (s *BattleSerializer) HasBattle(slot string) bool {
	return s.store != nil && s.store.ObjectPropExists(battleObject, slot)
}

// LoadBattle 读取存档槽中的快照
func (s *BattleSerializer) LoadBattle(slot string) (*BattleSaveData, error) {
	if s.store == nil {
		return nil, fmt.Errorf("battle store unavailable")
	}
	if !s.store.ObjectPropExists(battleObject, slot) {
		return nil, fmt.Errorf("no battle saved in slot %q", slot)
	}

	raw, err := s.store.LoadObjectProp(battleObject, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to load battle: %w", err)
	}
	data, err := s.Decode(raw)
	if err != nil {
		return nil, err
	}

	log.Printf("[BattleSerializer] 读取战斗 %s: Step=%d, Entities=%d", slot, data.Step, len(data.Entities))
	return data, nil
}

// Restore 在空战斗上重建快照
// 战斗的场地尺寸必须与快照一致，且场上不能有角色或障碍物
func (s *BattleSerializer) Restore(b *systems.BattleSystem, data *BattleSaveData) error {
	if b == nil || data == nil {
		return fmt.Errorf("battle system and save data are required")
	}
	cols, rows := b.Field.Size()
	if cols != data.Cols || rows != data.Rows {
		return fmt.Errorf("field size mismatch: battle %dx%d, save %dx%d", cols, rows, data.Cols, data.Rows)
	}
	if len(s.collectEntities(b.EntityManager())) > 0 {
		return fmt.Errorf("restore requires an empty field")
	}

	for _, t := range data.Tiles {
		tile := b.Field.GetAt(t.Col, t.Row)
		if tile == nil {
			return fmt.Errorf("tile (%d,%d) out of range", t.Col, t.Row)
		}
		tile.State = t.State
		tile.Team = t.Team
		tile.BrokenTimer = t.BrokenTimer
	}

	for i, e := range data.Entities {
		id, err := s.restoreEntity(b, e)
		if err != nil {
			return fmt.Errorf("entity #%d: %w", i, err)
		}
		if e.Aura == nil {
			continue
		}
		aura, err := systems.NewAura(b.AuraContext(), id, e.Aura.Type)
		if err != nil {
			return fmt.Errorf("entity #%d: %w", i, err)
		}
		status := aura.Status()
		status.Pool = e.Aura.Pool
		status.Timer = e.Aura.Timer
	}
	b.RestoreStep(data.Step)

	log.Printf("[BattleSerializer] 恢复战斗: Step=%d, Entities=%d", data.Step, len(data.Entities))
	return nil
}

func (s *BattleSerializer) restoreEntity(b *systems.BattleSystem, e EntityData) (ecs.EntityID, error) {
	var (
		id  ecs.EntityID
		err error
	)
	switch e.Kind {
	case types.KindCharacter:
		id, err = entities.NewCharacter(b, entities.CharacterSpec{
			Team:   e.Team,
			Col:    e.Col,
			Row:    e.Row,
			Health: e.MaxHealth,
		})
	case types.KindObstacle:
		id, err = entities.NewObstacle(b, e.Col, e.Row, e.MaxHealth)
	default:
		return 0, fmt.Errorf("unsupported entity kind %s", e.Kind)
	}
	if err != nil {
		return 0, err
	}

	if health, ok := ecs.GetComponent[*components.HealthComponent](b.EntityManager(), id); ok {
		health.CurrentHealth = e.Health
	}
	return id, nil
}
