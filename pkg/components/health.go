package components

// HealthComponent 存储实体的生命值信息
// 用于角色、障碍物等可被攻击的实体
//
// 设计说明:
// - 伤害先经过 DefenseChainComponent 中的防御规则，剩余部分才扣除生命值
// - CurrentHealth 不会低于 0
type HealthComponent struct {
	CurrentHealth int // 当前生命值
	MaxHealth     int // 最大生命值
}

// IsDead 检查生命值是否耗尽
func (h *HealthComponent) IsDead() bool {
	return h.CurrentHealth <= 0
}
