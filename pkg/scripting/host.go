package scripting

import (
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
	"github.com/decker502/netbattle/pkg/types"
)

// Spawner 脚本可以调用的战斗操作
type Spawner interface {
	SpawnHitbox(team types.Team, col, row int, props components.HitProperties) (ecs.EntityID, error)
	Destroy(id ecs.EntityID)
}

// Context 脚本运行时绑定的实体
type Context struct {
	Owner ecs.EntityID
	Team  types.Team
}

// 脚本可见的全局变量
const (
	globalEngine    = "engine"
	globalOwner     = "owner"
	globalTeam      = "team"
	globalDamage    = "damage"
	globalElement   = "element"
	globalFlags     = "flags"
	globalDirection = "direction"
	globalHandled   = "handled"
)

// Host 编译并运行 tengo 脚本
//
// 脚本是一段顶层代码，通过全局变量读写上下文:
//   - engine: 战斗操作（spawn_hitbox、destroy、has_flag、log）
//   - owner / team: 绑定的实体和阵营
//   - damage / element / flags / direction / handled: 仅防御规则脚本使用
type Host struct {
	spawner Spawner
}

// NewHost 创建脚本宿主
func NewHost(spawner Spawner) *Host {
	return &Host{spawner: spawner}
}

// Program 编译后的脚本
// 每个回调或规则持有自己的副本，全局变量互不影响
type Program struct {
	Name     string
	compiled *tengo.Compiled
}

// Compile 编译脚本源码
func (h *Host) Compile(name string, src []byte) (*Program, error) {
	script := tengo.NewScript(src)
	defaults := map[string]interface{}{
		globalEngine:    map[string]interface{}{},
		globalOwner:     0,
		globalTeam:      "",
		globalDamage:    0,
		globalElement:   "",
		globalFlags:     0,
		globalDirection: "",
		globalHandled:   false,
	}
	for k, v := range defaults {
		if err := script.Add(k, v); err != nil {
			return nil, fmt.Errorf("script %s: %w", name, err)
		}
	}
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile script %s: %w", name, err)
	}
	return &Program{Name: name, compiled: compiled}, nil
}

// CompileFile 从文件系统读取并编译脚本
func (h *Host) CompileFile(fsys fs.FS, path string) (*Program, error) {
	src, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return h.Compile(path, src)
}

// run 设置上下文并执行一次脚本
func (h *Host) run(name string, compiled *tengo.Compiled, ctx Context, extra map[string]interface{}) error {
	if err := compiled.Set(globalEngine, h.engine(name, ctx)); err != nil {
		return err
	}
	if err := compiled.Set(globalOwner, int64(ctx.Owner)); err != nil {
		return err
	}
	if err := compiled.Set(globalTeam, ctx.Team.String()); err != nil {
		return err
	}
	for k, v := range extra {
		if err := compiled.Set(k, v); err != nil {
			return err
		}
	}
	return compiled.Run()
}

// engine 构建脚本可调用的战斗操作
func (h *Host) engine(name string, ctx Context) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	// spawn_hitbox(col, row, damage[, element[, flags]])
	// flags 可以是整数位掩码或标志名数组
	values["spawn_hitbox"] = &tengo.UserFunction{Name: "spawn_hitbox", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if h.spawner == nil || len(args) < 3 {
			return tengo.FalseValue, nil
		}
		col, ok1 := tengo.ToInt(args[0])
		row, ok2 := tengo.ToInt(args[1])
		damage, ok3 := tengo.ToInt(args[2])
		if !ok1 || !ok2 || !ok3 {
			return tengo.FalseValue, nil
		}
		props := components.HitProperties{Damage: damage, Aggressor: ctx.Owner}
		if len(args) > 3 {
			if el, ok := types.ParseElement(objectAsString(args[3])); ok {
				props.Element = el
			}
		}
		if len(args) > 4 {
			props.Flags = objectAsFlags(args[4])
		}
		if _, err := h.spawner.SpawnHitbox(ctx.Team, col, row, props); err != nil {
			log.Printf("[Script] %s: %v", name, err)
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["destroy"] = &tengo.UserFunction{Name: "destroy", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if h.spawner == nil || ctx.Owner == 0 {
			return tengo.FalseValue, nil
		}
		h.spawner.Destroy(ctx.Owner)
		return tengo.TrueValue, nil
	}}

	// has_flag(flags, name)
	values["has_flag"] = &tengo.UserFunction{Name: "has_flag", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		want, ok := types.ParseHitFlag(objectAsString(args[1]))
		if !ok || !objectAsFlags(args[0]).Has(want) {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		log.Printf("[Script] %s: %s", name, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectAsFlags(obj tengo.Object) types.HitFlags {
	switch v := obj.(type) {
	case *tengo.Int:
		return types.HitFlags(v.Value)
	case *tengo.Array:
		var flags types.HitFlags
		for _, item := range v.Value {
			if f, ok := types.ParseHitFlag(objectAsString(item)); ok {
				flags |= f
			}
		}
		return flags
	case *tengo.ImmutableArray:
		return objectAsFlags(&tengo.Array{Value: v.Value})
	default:
		if f, ok := types.ParseHitFlag(objectAsString(obj)); ok {
			return f
		}
		return types.FlagNone
	}
}
