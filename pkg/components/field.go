package components

import (
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
)

// Tile 场地上的一个格子
type Tile struct {
	Col   int // 列（1-based）
	Row   int // 行（1-based）
	State types.TileState
	Team  types.Team // 格子所属阵营

	// Occupants 占据者列表（按进入顺序）
	Occupants []ecs.EntityID

	// TransitionStep 最近一次状态转换发生的步号
	// 每个格子每步最多转换一次
	TransitionStep uint64
	// Transitioned TransitionStep 是否有效（步号 0 也是合法步号）
	Transitioned bool

	// BrokenTimer 破碎状态剩余恢复时间（秒）
	BrokenTimer float64
}

// HasOccupant 检查实体是否在格子上
func (t *Tile) HasOccupant(id ecs.EntityID) bool {
	for _, o := range t.Occupants {
		if o == id {
			return true
		}
	}
	return false
}

// FieldComponent 标识战斗场地实体
// 用于跟踪每个格子的状态和占据者
//
// Tiles 按行优先存储: index = (row-1)*Cols + (col-1)
// 默认规格: 3行 x 6列，左 3 列属于红方
type FieldComponent struct {
	Cols  int
	Rows  int
	Tiles []Tile

	// Step 当前步号，由 FieldSystem.BeginStep 递增
	Step uint64
	// BrokenRecovery 破碎格子恢复时间（秒）
	BrokenRecovery float64
}
