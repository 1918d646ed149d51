package systems

import (
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
)

// 内置防御规则类别
const (
	CategoryGuard      = "guard"
	CategorySuperArmor = "super_armor"
	CategoryReduction  = "reduction"
	CategoryAura       = "aura"
	CategoryRedirect   = "redirect"
)

// GuardRule 防御：吸收所有不带破防标志的攻击
type GuardRule struct {
	components.DefenseRuleBase

	// OnGuard 成功防御时回调，通常用于生成防御特效
	OnGuard func(hit components.HitProperties, owner ecs.EntityID)
}

// NewGuardRule 创建防御规则
func NewGuardRule(onGuard func(hit components.HitProperties, owner ecs.EntityID)) *GuardRule {
	return &GuardRule{
		DefenseRuleBase: components.NewDefenseRuleBase(CategoryGuard),
		OnGuard:         onGuard,
	}
}

// Check 实现 DefenseRule
func (r *GuardRule) Check(hit *components.HitProperties, owner ecs.EntityID) bool {
	if hit.Flags.Has(types.FlagBreaking) {
		return false
	}
	if r.OnGuard != nil {
		r.OnGuard(*hit, owner)
	}
	return true
}

// SuperArmorRule 霸体：去掉硬直和击退标志后放行
type SuperArmorRule struct {
	components.DefenseRuleBase
}

// NewSuperArmorRule 创建霸体规则
func NewSuperArmorRule() *SuperArmorRule {
	return &SuperArmorRule{DefenseRuleBase: components.NewDefenseRuleBase(CategorySuperArmor)}
}

// Check 实现 DefenseRule
func (r *SuperArmorRule) Check(hit *components.HitProperties, owner ecs.EntityID) bool {
	hit.Flags = hit.Flags.Without(types.FlagFlinch | types.FlagDrag)
	return false
}

// DamageReductionRule 减伤：先按比例再减固定值，最低为 0
type DamageReductionRule struct {
	components.DefenseRuleBase
	Factor float64 // 伤害倍率，1.0 为不变
	Flat   int     // 固定减免
}

// NewDamageReductionRule 创建减伤规则
func NewDamageReductionRule(factor float64, flat int) *DamageReductionRule {
	return &DamageReductionRule{
		DefenseRuleBase: components.NewDefenseRuleBase(CategoryReduction),
		Factor:          factor,
		Flat:            flat,
	}
}

// Check 实现 DefenseRule
func (r *DamageReductionRule) Check(hit *components.HitProperties, owner ecs.EntityID) bool {
	dmg := int(float64(hit.Damage)*r.Factor) - r.Flat
	if dmg < 0 {
		dmg = 0
	}
	hit.Damage = dmg
	return false
}

// RedirectRule 转移：把攻击转交给另一个实体结算（例如核心承伤的 Boss）
// 目标实体不存在或正在结算时放行（互相转移的规则不会无限递归）
type RedirectRule struct {
	components.DefenseRuleBase
	defense *DefenseSystem
	Target  ecs.EntityID
}

// NewRedirectRule 创建转移规则
func NewRedirectRule(defense *DefenseSystem, target ecs.EntityID) *RedirectRule {
	return &RedirectRule{
		DefenseRuleBase: components.NewDefenseRuleBase(CategoryRedirect),
		defense:         defense,
		Target:          target,
	}
}

// Check 实现 DefenseRule
func (r *RedirectRule) Check(hit *components.HitProperties, owner ecs.EntityID) bool {
	if r.Target == owner || !r.defense.entityManager.IsAlive(r.Target) || r.defense.entityManager.IsMarkedForDestroy(r.Target) {
		return false
	}
	if r.defense.IsResolving(r.Target) {
		return false
	}
	r.defense.Resolve(*hit, r.Target)
	return true
}
