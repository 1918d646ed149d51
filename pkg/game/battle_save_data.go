package game

import (
	"time"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/types"
)

// BattleSaveVersion 战斗存档版本号
// 用于版本兼容性检查，当数据结构发生不兼容变更时递增
const BattleSaveVersion = 1

// BattleSaveData 战斗快照
//
// 只保存可以从工厂重建的状态：场地、角色和障碍物的生命值、生效中的光环。
// 动画、脚本回调和飞行中的法术不保存，恢复后由调用方重新挂载。
// 使用 gob 二进制格式序列化。
type BattleSaveData struct {
	// 版本和元数据
	Version  int
	SaveTime time.Time
	Step     uint64 // 保存时已完成的步数

	// 场地
	Cols  int
	Rows  int
	Tiles []TileData

	// 实体（按创建顺序）
	Entities []EntityData
}

// TileData 格子序列化数据
type TileData struct {
	Col         int
	Row         int
	State       types.TileState
	Team        types.Team
	BrokenTimer float64
}

// EntityData 角色或障碍物序列化数据
type EntityData struct {
	Kind      types.EntityKind
	Team      types.Team
	Col       int
	Row       int
	Health    int
	MaxHealth int
	Aura      *AuraData // 生效中的光环（可选）
}

// AuraData 光环序列化数据
type AuraData struct {
	Type  components.AuraType
	Pool  int
	Timer float64
}

// NewBattleSaveData 创建当前版本的空快照
func NewBattleSaveData() *BattleSaveData {
	return &BattleSaveData{Version: BattleSaveVersion}
}
