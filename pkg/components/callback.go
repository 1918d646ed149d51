package components

// Invocable 不透明的零参数回调能力
// 核心只调用 Invoke，不关心回调来自 Go 闭包还是脚本宿主
type Invocable interface {
	Invoke()
}

// InvocableFunc 将普通函数适配为 Invocable
type InvocableFunc func()

// Invoke 调用函数本身
func (f InvocableFunc) Invoke() {
	if f != nil {
		f()
	}
}

// Invoke 安全调用回调，nil 回调为空操作
func Invoke(cb Invocable) {
	if cb != nil {
		cb.Invoke()
	}
}
