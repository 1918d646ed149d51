package components

import "github.com/decker502/netbattle/pkg/ecs"

// DefenseRule 防御规则
// Check 在攻击到达生命值之前被调用:
//   - 返回 true: 完全吸收，后续规则不再被询问，伤害为 0
//   - 返回 false: 放行（可以修改 hit，例如降低伤害或去掉标志）
type DefenseRule interface {
	Check(hit *HitProperties, owner ecs.EntityID) bool
	// Category 同类别的新规则会替换旧规则，空字符串表示不参与替换
	Category() string
	IsReplaced() bool
	MarkReplaced()
}

// DefenseRuleBase 提供 Category/IsReplaced/MarkReplaced 的默认实现
// 具体规则嵌入它即可
type DefenseRuleBase struct {
	category string
	replaced bool
}

// NewDefenseRuleBase 创建规则基础数据
func NewDefenseRuleBase(category string) DefenseRuleBase {
	return DefenseRuleBase{category: category}
}

// Category 返回规则类别
func (b *DefenseRuleBase) Category() string {
	return b.category
}

// IsReplaced 检查规则是否已被替换
func (b *DefenseRuleBase) IsReplaced() bool {
	return b.replaced
}

// MarkReplaced 标记规则已被替换，下一次清理时移出防御链
func (b *DefenseRuleBase) MarkReplaced() {
	b.replaced = true
}

// DefenseChainComponent 实体的防御链（按插入顺序求值）
type DefenseChainComponent struct {
	Rules []DefenseRule

	// Resolving 正在结算攻击时为 true，此时移除请求被延迟
	Resolving bool
	// PendingRemoval 结算期间请求移除的规则
	PendingRemoval []DefenseRule
}
