package components

// LifetimeComponent 限时实体的存在时间
// 计时到期后实体被标记删除（如无法播完动画的特效）
type LifetimeComponent struct {
	Duration float64 // 最长存在时间（秒）
	Elapsed  float64 // 已存在时间（秒）
}

// Expired 是否已到期
func (l *LifetimeComponent) Expired() bool {
	return l.Elapsed >= l.Duration
}

// Remaining 剩余时间，到期后为 0
func (l *LifetimeComponent) Remaining() float64 {
	if l.Expired() {
		return 0
	}
	return l.Duration - l.Elapsed
}
