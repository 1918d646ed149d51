package systems

import (
	"log"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
)

// FieldSystem 管理战斗场地的格子状态和占据关系
//
// 坐标均为 1-based: col ∈ [1, Cols], row ∈ [1, Rows]
// 越界坐标不会报错，调用方检查返回值（false / nil）
//
// 占据规则:
//   - 隐藏格子不能放置任何实体
//   - 破碎格子不能放置角色和障碍物
//   - 角色只能站在己方格子上
//   - 角色和障碍物独占格子（判定框、法术、特效不占格）
type FieldSystem struct {
	entityManager *ecs.EntityManager
	fieldEntity   ecs.EntityID
}

// NewFieldSystem 创建场地并返回场地系统
// 参数:
//   - em: EntityManager 实例
//   - cols, rows: 场地规格
//   - redColumns: 左侧属于红方的列数，其余列属于蓝方
//   - brokenRecovery: 破碎格子恢复时间（秒），<= 0 表示不恢复
func NewFieldSystem(em *ecs.EntityManager, cols, rows, redColumns int, brokenRecovery float64) *FieldSystem {
	field := &components.FieldComponent{
		Cols:           cols,
		Rows:           rows,
		Tiles:          make([]components.Tile, cols*rows),
		BrokenRecovery: brokenRecovery,
	}
	for row := 1; row <= rows; row++ {
		for col := 1; col <= cols; col++ {
			team := types.TeamBlue
			if col <= redColumns {
				team = types.TeamRed
			}
			field.Tiles[(row-1)*cols+(col-1)] = components.Tile{
				Col:   col,
				Row:   row,
				State: types.TileNormal,
				Team:  team,
			}
		}
	}

	id := em.CreateEntity()
	ecs.AddComponent(em, id, field)

	return &FieldSystem{
		entityManager: em,
		fieldEntity:   id,
	}
}

// FieldEntity 返回场地实体ID
func (s *FieldSystem) FieldEntity() ecs.EntityID {
	return s.fieldEntity
}

func (s *FieldSystem) field() *components.FieldComponent {
	field, _ := ecs.GetComponent[*components.FieldComponent](s.entityManager, s.fieldEntity)
	return field
}

// Size 返回场地规格 (cols, rows)
func (s *FieldSystem) Size() (int, int) {
	field := s.field()
	if field == nil {
		return 0, 0
	}
	return field.Cols, field.Rows
}

// CurrentStep 返回当前步号
func (s *FieldSystem) CurrentStep() uint64 {
	if field := s.field(); field != nil {
		return field.Step
	}
	return 0
}

// GetAt 返回格子，越界返回 nil
func (s *FieldSystem) GetAt(col, row int) *components.Tile {
	field := s.field()
	if field == nil || col < 1 || row < 1 || col > field.Cols || row > field.Rows {
		return nil
	}
	return &field.Tiles[(row-1)*field.Cols+(col-1)]
}

func (s *FieldSystem) kindOf(id ecs.EntityID) types.EntityKind {
	if k, ok := ecs.GetComponent[*components.EntityKindComponent](s.entityManager, id); ok {
		return k.Kind
	}
	return types.KindUnknown
}

func (s *FieldSystem) teamOf(id ecs.EntityID) types.Team {
	if t, ok := ecs.GetComponent[*components.TeamComponent](s.entityManager, id); ok {
		return t.Team
	}
	return types.TeamUnknown
}

// CanOccupy 检查实体能否进入格子
func (s *FieldSystem) CanOccupy(id ecs.EntityID, col, row int) bool {
	tile := s.GetAt(col, row)
	if tile == nil {
		return false
	}
	return s.canOccupy(tile, id, s.kindOf(id), s.teamOf(id))
}

func (s *FieldSystem) canOccupy(tile *components.Tile, id ecs.EntityID, kind types.EntityKind, team types.Team) bool {
	if tile.State == types.TileHidden {
		return false
	}
	if !kind.Blocking() {
		return true
	}
	if tile.State == types.TileBroken {
		return false
	}
	if kind == types.KindCharacter && team != types.TeamUnknown && tile.Team != team {
		return false
	}
	for _, other := range tile.Occupants {
		if other != id && s.kindOf(other).Blocking() {
			return false
		}
	}
	return true
}

// AddEntity 把实体放到格子上
// 越界或不可占据时为空操作并返回 false
// 实体已在其他格子上时视为移动：角色离开裂开的格子会使其破碎
func (s *FieldSystem) AddEntity(id ecs.EntityID, col, row int) bool {
	tile := s.GetAt(col, row)
	if tile == nil || !s.entityManager.IsAlive(id) {
		return false
	}
	kind := s.kindOf(id)
	if !s.canOccupy(tile, id, kind, s.teamOf(id)) {
		return false
	}

	if ref, ok := ecs.GetComponent[*components.TileRefComponent](s.entityManager, id); ok {
		if ref.Col == col && ref.Row == row && tile.HasOccupant(id) {
			return true
		}
		if prev := s.GetAt(ref.Col, ref.Row); prev != nil {
			removeOccupant(prev, id)
			if kind == types.KindCharacter && prev.State == types.TileCracked {
				s.transition(prev, types.TileBroken)
			}
		}
		ref.Col, ref.Row = col, row
	} else {
		ecs.AddComponent(s.entityManager, id, &components.TileRefComponent{Col: col, Row: row})
	}

	tile.Occupants = append(tile.Occupants, id)
	return true
}

// RemoveEntity 把实体从所在格子移除（不影响格子状态）
func (s *FieldSystem) RemoveEntity(id ecs.EntityID) bool {
	ref, ok := ecs.GetComponent[*components.TileRefComponent](s.entityManager, id)
	if !ok {
		return false
	}
	removed := false
	if tile := s.GetAt(ref.Col, ref.Row); tile != nil {
		removed = removeOccupant(tile, id)
	}
	ecs.RemoveComponent[*components.TileRefComponent](s.entityManager, id)
	return removed
}

func removeOccupant(tile *components.Tile, id ecs.EntityID) bool {
	for i, o := range tile.Occupants {
		if o == id {
			tile.Occupants = append(tile.Occupants[:i], tile.Occupants[i+1:]...)
			return true
		}
	}
	return false
}

// TileOf 返回实体所在格子坐标
func (s *FieldSystem) TileOf(id ecs.EntityID) (int, int, bool) {
	ref, ok := ecs.GetComponent[*components.TileRefComponent](s.entityManager, id)
	if !ok {
		return 0, 0, false
	}
	return ref.Col, ref.Row, true
}

// Occupants 返回格子占据者的副本（按进入顺序）
func (s *FieldSystem) Occupants(col, row int) []ecs.EntityID {
	tile := s.GetAt(col, row)
	if tile == nil {
		return nil
	}
	out := make([]ecs.EntityID, len(tile.Occupants))
	copy(out, tile.Occupants)
	return out
}

// SetTileState 请求格子状态转换
// 返回是否发生了转换:
//   - 越界、状态相同、隐藏格子、本步已转换过 → false
//   - 有角色或障碍物站立时，破碎降级为裂开
func (s *FieldSystem) SetTileState(col, row int, state types.TileState) bool {
	tile := s.GetAt(col, row)
	if tile == nil {
		return false
	}
	return s.transition(tile, state)
}

func (s *FieldSystem) transition(tile *components.Tile, state types.TileState) bool {
	field := s.field()
	if tile.State == types.TileHidden {
		return false
	}
	if tile.Transitioned && tile.TransitionStep == field.Step {
		return false
	}
	if state == types.TileBroken && s.hasBlocker(tile) {
		state = types.TileCracked
	}
	if tile.State == state {
		return false
	}

	log.Printf("[FieldSystem] 格子 (%d,%d) %s -> %s", tile.Col, tile.Row, tile.State, state)
	tile.State = state
	tile.Transitioned = true
	tile.TransitionStep = field.Step
	if state == types.TileBroken {
		tile.BrokenTimer = field.BrokenRecovery
	}
	return true
}

func (s *FieldSystem) hasBlocker(tile *components.Tile) bool {
	for _, o := range tile.Occupants {
		if s.kindOf(o).Blocking() {
			return true
		}
	}
	return false
}

// BeginStep 开始新的一步：步号递增，破碎格子计时恢复
func (s *FieldSystem) BeginStep(dt float64) {
	field := s.field()
	if field == nil {
		return
	}
	field.Step++

	if field.BrokenRecovery <= 0 {
		return
	}
	for i := range field.Tiles {
		tile := &field.Tiles[i]
		if tile.State != types.TileBroken {
			continue
		}
		tile.BrokenTimer -= dt
		if tile.BrokenTimer <= 0 {
			s.transition(tile, types.TileNormal)
		}
	}
}

// FirstInRow 沿方向扫描一行，返回第一个满足条件的占据者
// 从 (col,row) 的下一个格子开始，不包含起点
func (s *FieldSystem) FirstInRow(col, row int, dir types.Direction, match func(ecs.EntityID) bool) (ecs.EntityID, int, bool) {
	dc, _ := dir.Delta()
	if dc == 0 {
		return 0, 0, false
	}
	for c := col + dc; ; c += dc {
		tile := s.GetAt(c, row)
		if tile == nil {
			return 0, 0, false
		}
		for _, o := range tile.Occupants {
			if match(o) {
				return o, c, true
			}
		}
	}
}
