package components

import (
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
)

// HitProperties 单次攻击的属性
// 值类型：每次攻击尝试都会复制一份，防御规则可以修改副本
type HitProperties struct {
	Damage    int             // 伤害值
	Element   types.Element   // 属性
	Flags     types.HitFlags  // 标志位
	Direction types.Direction // 攻击方向（击退、风属性吹飞）
	Aggressor ecs.EntityID    // 攻击来源，0 表示无来源
}

// HitboxComponent 判定框组件
// 判定框是生成到格子上的临时实体，携带复制的 HitProperties
// 与生成它的攻击相互独立：攻击实体被删除后判定框照常投递
type HitboxComponent struct {
	Props HitProperties
	// Team 判定框所属阵营，只命中其他阵营的占据者；TeamUnknown 命中所有占据者
	Team types.Team
	// Delivered 是否已投递（每个判定框只投递一次）
	Delivered bool
}
