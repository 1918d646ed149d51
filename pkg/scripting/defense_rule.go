package scripting

import (
	"log"

	"github.com/d5/tengo/v2"
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
)

// ScriptedDefenseRule 以脚本实现的防御规则
//
// 脚本读取 damage / element / flags / direction，可以修改 damage 和 flags，
// 设置 handled = true 表示吸收本次攻击
type ScriptedDefenseRule struct {
	components.DefenseRuleBase

	host     *Host
	name     string
	compiled *tengo.Compiled
	ctx      Context
}

// NewDefenseRule 创建脚本防御规则
func (h *Host) NewDefenseRule(p *Program, category string, ctx Context) *ScriptedDefenseRule {
	return &ScriptedDefenseRule{
		DefenseRuleBase: components.NewDefenseRuleBase(category),
		host:            h,
		name:            p.Name,
		compiled:        p.compiled.Clone(),
		ctx:             ctx,
	}
}

// Check 实现 components.DefenseRule
// 脚本出错时放行攻击，攻击保持不变
func (r *ScriptedDefenseRule) Check(hit *components.HitProperties, owner ecs.EntityID) bool {
	ctx := r.ctx
	if ctx.Owner == 0 {
		ctx.Owner = owner
	}
	err := r.host.run(r.name, r.compiled, ctx, map[string]interface{}{
		globalDamage:    hit.Damage,
		globalElement:   hit.Element.String(),
		globalFlags:     int64(hit.Flags),
		globalDirection: hit.Direction.String(),
		globalHandled:   false,
	})
	if err != nil {
		log.Printf("[Script] 防御规则 %s 执行失败: %v", r.name, err)
		return false
	}

	damage := r.compiled.Get(globalDamage).Int()
	if damage < 0 {
		damage = 0
	}
	hit.Damage = damage
	hit.Flags = types.HitFlags(r.compiled.Get(globalFlags).Int())
	return r.compiled.Get(globalHandled).Bool()
}
