// Package types 定义共享的基础类型
// 这个包不依赖任何其他业务包，用于解决循环引用问题
package types

// Team 定义实体所属阵营
type Team int

const (
	// TeamUnknown 无阵营（障碍物、场地效果）
	TeamUnknown Team = iota
	// TeamRed 红方（玩家一侧，默认占据左半场）
	TeamRed
	// TeamBlue 蓝方（敌方，默认占据右半场）
	TeamBlue
)

// String 返回阵营的字符串表示
func (t Team) String() string {
	switch t {
	case TeamRed:
		return "Red"
	case TeamBlue:
		return "Blue"
	default:
		return "Unknown"
	}
}

// Opponent 返回敌对阵营，无阵营返回自身
func (t Team) Opponent() Team {
	switch t {
	case TeamRed:
		return TeamBlue
	case TeamBlue:
		return TeamRed
	default:
		return TeamUnknown
	}
}

// ParseTeam 从字符串解析阵营，未知字符串返回 TeamUnknown
func ParseTeam(s string) Team {
	switch s {
	case "red", "Red":
		return TeamRed
	case "blue", "Blue":
		return TeamBlue
	default:
		return TeamUnknown
	}
}

// Direction 定义朝向
type Direction int

const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
	DirectionUp
	DirectionDown
)

// String 返回方向的字符串表示
func (d Direction) String() string {
	switch d {
	case DirectionLeft:
		return "Left"
	case DirectionRight:
		return "Right"
	case DirectionUp:
		return "Up"
	case DirectionDown:
		return "Down"
	default:
		return "None"
	}
}

// Delta 返回该方向上的格子偏移 (col, row)
func (d Direction) Delta() (int, int) {
	switch d {
	case DirectionLeft:
		return -1, 0
	case DirectionRight:
		return 1, 0
	case DirectionUp:
		return 0, -1
	case DirectionDown:
		return 0, 1
	default:
		return 0, 0
	}
}

// Facing 返回阵营的默认朝向（红方朝右，蓝方朝左）
func (t Team) Facing() Direction {
	switch t {
	case TeamRed:
		return DirectionRight
	case TeamBlue:
		return DirectionLeft
	default:
		return DirectionNone
	}
}
