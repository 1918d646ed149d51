package components

import "github.com/decker502/netbattle/pkg/types"

// EntityKindComponent 标识实体的种类（封闭变体）
type EntityKindComponent struct {
	Kind types.EntityKind
}

// TeamComponent 标识实体所属阵营
type TeamComponent struct {
	Team types.Team
}

// TileRefComponent 实体当前所在格子（弱引用，只记录坐标）
// 格子不拥有实体的生命周期
type TileRefComponent struct {
	Col int // 列（1-based）
	Row int // 行（1-based）
}

// HitFlagsComponent 本步内实体收到的所有攻击标志（按位或）
// 由 DefenseSystem.Resolve 写入，BattleSystem 每步开始时清零
type HitFlagsComponent struct {
	Flags types.HitFlags
}
