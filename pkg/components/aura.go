package components

import "github.com/jakecoffman/cp"

// AuraType 光环/屏障类型
type AuraType int

const (
	// Aura100 吸收 100 伤害的光环（计时消失）
	Aura100 AuraType = iota
	// Aura200 吸收 200 伤害的光环（计时消失）
	Aura200
	// Aura1000 吸收 1000 伤害的光环（计时消失）
	Aura1000
	// Barrier10 屏障（持久，100 点）
	Barrier10
	// Barrier200 屏障（持久，200 点）
	Barrier200
	// Barrier500 屏障（持久，500 点）
	Barrier500
)

var auraTypeNames = map[AuraType]string{
	Aura100:    "aura_100",
	Aura200:    "aura_200",
	Aura1000:   "aura_1000",
	Barrier10:  "barrier_10",
	Barrier200: "barrier_200",
	Barrier500: "barrier_500",
}

// String 返回类型名（与配置文件中的名称一致）
func (t AuraType) String() string {
	if name, ok := auraTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseAuraType 从配置名解析光环类型
func ParseAuraType(s string) (AuraType, bool) {
	for t, name := range auraTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// AuraState 光环状态机
//
//	Active -> Depleting (血量或计时归零) -> Detached (移除计时结束)
//	Active -> Replaced -> Detached (被新光环替换)
type AuraState int

const (
	AuraActive AuraState = iota
	AuraDepleting
	AuraReplaced
	AuraDetached
)

// String 返回状态的字符串表示
func (s AuraState) String() string {
	switch s {
	case AuraActive:
		return "Active"
	case AuraDepleting:
		return "Depleting"
	case AuraReplaced:
		return "Replaced"
	case AuraDetached:
		return "Detached"
	default:
		return "Unknown"
	}
}

// AuraComponent 光环的可观察状态
// 挂在所属实体上，供调试显示和存档读取；规则逻辑在 systems.Aura 中
type AuraComponent struct {
	Type       AuraType
	State      AuraState
	Pool       int     // 剩余吸收量
	MaxPool    int     // 初始吸收量
	Timer      float64 // 剩余时间（秒）；Depleting 状态下为移除倒计时
	Persistent bool    // 屏障：Active 时计时不衰减

	// FlyAway 被风属性吹走时的表现数据
	FlyAway   bool
	FlyOffset cp.Vector
	FlyVel    cp.Vector
	FlyAccel  cp.Vector
}
