package types

// PlaybackMode 动画播放模式（位掩码）
// Once 为零值；Loop、Bounce、Reverse 可组合
type PlaybackMode uint8

const (
	// PlaybackOnce 播放到末帧后停止，触发一次完成回调
	PlaybackOnce PlaybackMode = 0
	// PlaybackLoop 循环播放
	PlaybackLoop PlaybackMode = 1 << 0
	// PlaybackBounce 到达边界时反向（回文序列）
	PlaybackBounce PlaybackMode = 1 << 1
	// PlaybackReverse 从末帧向首帧播放
	PlaybackReverse PlaybackMode = 1 << 2
)

// Has 检查是否包含指定模式位
func (m PlaybackMode) Has(bit PlaybackMode) bool {
	return m&bit != 0
}

// String 返回播放模式的字符串表示
func (m PlaybackMode) String() string {
	if m == PlaybackOnce {
		return "Once"
	}
	s := ""
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if m.Has(PlaybackLoop) {
		add("Loop")
	}
	if m.Has(PlaybackBounce) {
		add("Bounce")
	}
	if m.Has(PlaybackReverse) {
		add("Reverse")
	}
	return s
}
