package types

// EntityKind 封闭的实体种类
// 具体能力（生命值、阵营、防御链）通过组件组合，而不是继承
type EntityKind int

const (
	KindUnknown EntityKind = iota
	// KindCharacter 角色：受阵营限制，占据格子
	KindCharacter
	// KindObstacle 障碍物：占据格子，不受阵营限制
	KindObstacle
	// KindSpell 法术：攻击实体，通常生成判定框
	KindSpell
	// KindArtifact 特效：纯表现，不参与判定
	KindArtifact
	// KindHitbox 判定框：在格子上投递一次攻击
	KindHitbox
)

// String 返回实体种类的字符串表示
func (k EntityKind) String() string {
	switch k {
	case KindCharacter:
		return "Character"
	case KindObstacle:
		return "Obstacle"
	case KindSpell:
		return "Spell"
	case KindArtifact:
		return "Artifact"
	case KindHitbox:
		return "Hitbox"
	default:
		return "Unknown"
	}
}

// Blocking 报告该种类是否独占格子
func (k EntityKind) Blocking() bool {
	return k == KindCharacter || k == KindObstacle
}
