package types

// TileState 定义格子状态
type TileState int

const (
	// TileNormal 普通格子
	TileNormal TileState = iota
	// TileCracked 裂开的格子，角色离开后破碎
	TileCracked
	// TileBroken 破碎的格子，角色和障碍物不能站立，一段时间后恢复
	TileBroken
	// TileHidden 隐藏格子（Boss 场地），一旦设置不可更改，也不可占据
	TileHidden
)

// String 返回格子状态的字符串表示
func (s TileState) String() string {
	switch s {
	case TileNormal:
		return "Normal"
	case TileCracked:
		return "Cracked"
	case TileBroken:
		return "Broken"
	case TileHidden:
		return "Hidden"
	default:
		return "Unknown"
	}
}
