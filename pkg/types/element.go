package types

// Element 定义攻击的属性
type Element int

const (
	ElementNone Element = iota
	ElementFire
	ElementAqua
	ElementElec
	ElementWood
	ElementWind
	ElementSword
	ElementBreak
	ElementCursor
)

var elementNames = map[Element]string{
	ElementNone:   "none",
	ElementFire:   "fire",
	ElementAqua:   "aqua",
	ElementElec:   "elec",
	ElementWood:   "wood",
	ElementWind:   "wind",
	ElementSword:  "sword",
	ElementBreak:  "break",
	ElementCursor: "cursor",
}

// String 返回属性的字符串表示
func (e Element) String() string {
	if name, ok := elementNames[e]; ok {
		return name
	}
	return "none"
}

// ParseElement 从字符串解析属性
// 返回: (属性, 是否识别)
func ParseElement(s string) (Element, bool) {
	for e, name := range elementNames {
		if name == s {
			return e, true
		}
	}
	return ElementNone, false
}
