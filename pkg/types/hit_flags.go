package types

// HitFlags 攻击附带的标志位
type HitFlags uint32

// FlagNone 无标志
const FlagNone HitFlags = 0

const (
	// FlagFlinch 受击硬直
	FlagFlinch HitFlags = 1 << iota
	// FlagFlash 受击后无敌闪烁
	FlagFlash
	// FlagStun 麻痹
	FlagStun
	// FlagBreaking 破防，无视护盾
	FlagBreaking
	// FlagImpact 接触伤害
	FlagImpact
	// FlagPierce 穿透无敌
	FlagPierce
	// FlagNoCounter 不触发反击
	FlagNoCounter
	// FlagDrag 击退
	FlagDrag
)

// Has 检查是否包含全部指定标志
func (f HitFlags) Has(flags HitFlags) bool {
	return f&flags == flags
}

// With 返回添加了指定标志的副本
func (f HitFlags) With(flags HitFlags) HitFlags {
	return f | flags
}

// Without 返回移除了指定标志的副本
func (f HitFlags) Without(flags HitFlags) HitFlags {
	return f &^ flags
}

var hitFlagNames = map[string]HitFlags{
	"flinch":     FlagFlinch,
	"flash":      FlagFlash,
	"stun":       FlagStun,
	"breaking":   FlagBreaking,
	"impact":     FlagImpact,
	"pierce":     FlagPierce,
	"no_counter": FlagNoCounter,
	"drag":       FlagDrag,
}

// ParseHitFlag 从字符串解析单个标志
func ParseHitFlag(s string) (HitFlags, bool) {
	f, ok := hitFlagNames[s]
	return f, ok
}
