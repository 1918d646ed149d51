package scripting

import (
	"log"

	"github.com/d5/tengo/v2"
)

// ScriptCallback 以脚本实现的回调，可用于动画帧回调、完成回调等
type ScriptCallback struct {
	host     *Host
	name     string
	compiled *tengo.Compiled
	ctx      Context

	// Runs 已执行次数
	Runs int
}

// NewCallback 为指定实体创建脚本回调
func (h *Host) NewCallback(p *Program, ctx Context) *ScriptCallback {
	return &ScriptCallback{
		host:     h,
		name:     p.Name,
		compiled: p.compiled.Clone(),
		ctx:      ctx,
	}
}

// Run 执行脚本并返回错误
func (c *ScriptCallback) Run() error {
	c.Runs++
	return c.host.run(c.name, c.compiled, c.ctx, nil)
}

// Invoke 实现 components.Invocable，脚本错误只记录日志
func (c *ScriptCallback) Invoke() {
	if err := c.Run(); err != nil {
		log.Printf("[Script] %s 执行失败: %v", c.name, err)
	}
}
