package systems

import (
	"log"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
)

// DefenseSystem 攻击结算：依次经过目标的防御链，剩余伤害扣除生命值
//
// 防御链规则:
//   - 按插入顺序求值，nil 规则和已被替换的规则跳过
//   - 任一规则吸收攻击后，后续规则不再被询问，伤害为 0
//   - 规则可以修改攻击副本（降低伤害、去掉标志）后放行
//   - 结算期间的移除请求延迟到结算结束
//   - 被替换的规则在 PruneReplaced 时移出防御链
type DefenseSystem struct {
	entityManager *ecs.EntityManager
}

// NewDefenseSystem 创建攻击结算系统
func NewDefenseSystem(em *ecs.EntityManager) *DefenseSystem {
	return &DefenseSystem{
		entityManager: em,
	}
}

func (s *DefenseSystem) chain(owner ecs.EntityID, create bool) *components.DefenseChainComponent {
	chain, ok := ecs.GetComponent[*components.DefenseChainComponent](s.entityManager, owner)
	if !ok && create && s.entityManager.IsAlive(owner) {
		chain = &components.DefenseChainComponent{}
		ecs.AddComponent(s.entityManager, owner, chain)
	}
	return chain
}

// AddRule 把规则追加到实体防御链末尾
// 同类别（非空）的旧规则被标记为已替换
func (s *DefenseSystem) AddRule(owner ecs.EntityID, rule components.DefenseRule) bool {
	if rule == nil {
		return false
	}
	chain := s.chain(owner, true)
	if chain == nil {
		return false
	}

	if cat := rule.Category(); cat != "" {
		for _, r := range chain.Rules {
			if r == nil || r == rule || r.IsReplaced() || r.Category() != cat {
				continue
			}
			r.MarkReplaced()
			log.Printf("[DefenseSystem] 实体 %d 的 %s 规则被新规则替换", owner, cat)
		}
	}

	chain.Rules = append(chain.Rules, rule)
	return true
}

// RemoveRule 从防御链移除规则
// 幂等：规则不在链中时返回 false；结算期间的请求延迟执行
func (s *DefenseSystem) RemoveRule(owner ecs.EntityID, rule components.DefenseRule) bool {
	chain := s.chain(owner, false)
	if chain == nil || rule == nil {
		return false
	}
	if chain.Resolving {
		if indexOfRule(chain.Rules, rule) < 0 || indexOfRule(chain.PendingRemoval, rule) >= 0 {
			return false
		}
		chain.PendingRemoval = append(chain.PendingRemoval, rule)
		return true
	}
	return removeRule(chain, rule)
}

func indexOfRule(rules []components.DefenseRule, rule components.DefenseRule) int {
	for i, r := range rules {
		if r == rule {
			return i
		}
	}
	return -1
}

func removeRule(chain *components.DefenseChainComponent, rule components.DefenseRule) bool {
	i := indexOfRule(chain.Rules, rule)
	if i < 0 {
		return false
	}
	chain.Rules = append(chain.Rules[:i], chain.Rules[i+1:]...)
	return true
}

// IsResolving 检查实体是否正在结算攻击（处于防御链求值中）
func (s *DefenseSystem) IsResolving(id ecs.EntityID) bool {
	chain := s.chain(id, false)
	return chain != nil && chain.Resolving
}

// Rules 返回防御链的副本
func (s *DefenseSystem) Rules(owner ecs.EntityID) []components.DefenseRule {
	chain := s.chain(owner, false)
	if chain == nil {
		return nil
	}
	out := make([]components.DefenseRule, len(chain.Rules))
	copy(out, chain.Rules)
	return out
}

// Resolve 结算一次攻击，返回实际扣除的生命值
// hit 按值传入，规则修改的是本次结算的副本
func (s *DefenseSystem) Resolve(hit components.HitProperties, target ecs.EntityID) int {
	if !s.entityManager.IsAlive(target) {
		return 0
	}

	if chain := s.chain(target, false); chain != nil {
		outer := chain.Resolving
		chain.Resolving = true
		rules := make([]components.DefenseRule, len(chain.Rules))
		copy(rules, chain.Rules)

		absorbed := false
		for _, r := range rules {
			if r == nil || r.IsReplaced() {
				continue
			}
			if r.Check(&hit, target) {
				absorbed = true
				break
			}
		}

		chain.Resolving = outer
		if !outer {
			for _, r := range chain.PendingRemoval {
				removeRule(chain, r)
			}
			chain.PendingRemoval = chain.PendingRemoval[:0]
		}
		if absorbed {
			return 0
		}
	}

	if flags, ok := ecs.GetComponent[*components.HitFlagsComponent](s.entityManager, target); ok {
		flags.Flags |= hit.Flags
	} else {
		ecs.AddComponent(s.entityManager, target, &components.HitFlagsComponent{Flags: hit.Flags})
	}

	health, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, target)
	if !ok || hit.Damage <= 0 {
		return 0
	}
	before := health.CurrentHealth
	health.CurrentHealth -= hit.Damage
	if health.CurrentHealth < 0 {
		health.CurrentHealth = 0
	}
	return before - health.CurrentHealth
}

// PruneReplaced 把所有被替换的规则和 nil 规则移出防御链
func (s *DefenseSystem) PruneReplaced() {
	owners := ecs.GetEntitiesWith1[*components.DefenseChainComponent](s.entityManager)
	for _, owner := range owners {
		chain, _ := ecs.GetComponent[*components.DefenseChainComponent](s.entityManager, owner)
		if chain == nil || chain.Resolving {
			continue
		}
		kept := chain.Rules[:0]
		for _, r := range chain.Rules {
			if r != nil && !r.IsReplaced() {
				kept = append(kept, r)
			}
		}
		for i := len(kept); i < len(chain.Rules); i++ {
			chain.Rules[i] = nil
		}
		chain.Rules = kept
	}
}
