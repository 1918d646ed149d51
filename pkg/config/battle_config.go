package config

import (
	"fmt"
	"os"

	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/embedded"
	"github.com/decker502/netbattle/pkg/systems"
	"github.com/jakecoffman/cp"
	"gopkg.in/yaml.v3"
)

// BattleConfig 战斗配置文件的顶层结构
type BattleConfig struct {
	StepRate  int             `yaml:"step_rate"` // 每秒模拟步数
	Field     FieldConfig     `yaml:"field"`
	Tiles     TilesConfig     `yaml:"tiles"`
	Aura      AuraConfig      `yaml:"aura"`
	Resources ResourcesConfig `yaml:"resources"`
}

// FieldConfig 场地尺寸
type FieldConfig struct {
	Cols       int `yaml:"cols"`
	Rows       int `yaml:"rows"`
	RedColumns int `yaml:"red_columns"` // 左侧属于红方的列数
}

// TilesConfig 格子参数
type TilesConfig struct {
	BrokenRecovery float64 `yaml:"broken_recovery"` // 破碎格子恢复时间（秒），0 表示不恢复
}

// AuraConfig 光环参数
type AuraConfig struct {
	Timer        float64          `yaml:"timer"`
	RemovalGrace float64          `yaml:"removal_grace"`
	FlyAccel     []float64        `yaml:"fly_accel"` // [x, y]
	Types        []AuraTypeConfig `yaml:"types"`
}

// AuraTypeConfig 单种光环
type AuraTypeConfig struct {
	Type       string `yaml:"type"` // aura_100 / barrier_200 ...
	Pool       int    `yaml:"pool"`
	Persistent bool   `yaml:"persistent"`
}

// ResourcesConfig 资源目录
type ResourcesConfig struct {
	AnimationDir string `yaml:"animation_dir"`
	ScriptDir    string `yaml:"script_dir"`
}

// DefaultBattleConfig 返回默认配置
func DefaultBattleConfig() *BattleConfig {
	defaults := systems.DefaultAuraSettings()
	types := make([]AuraTypeConfig, 0, len(defaults.Types))
	for _, t := range []components.AuraType{
		components.Aura100, components.Aura200, components.Aura1000,
		components.Barrier10, components.Barrier200, components.Barrier500,
	} {
		spec := defaults.Types[t]
		types = append(types, AuraTypeConfig{Type: t.String(), Pool: spec.Pool, Persistent: spec.Persistent})
	}

	return &BattleConfig{
		StepRate: 60,
		Field:    FieldConfig{Cols: 6, Rows: 3, RedColumns: 3},
		Tiles:    TilesConfig{BrokenRecovery: 10},
		Aura: AuraConfig{
			Timer:        defaults.Timer,
			RemovalGrace: defaults.RemovalGrace,
			FlyAccel:     []float64{defaults.FlyAccel.X, defaults.FlyAccel.Y},
			Types:        types,
		},
		Resources: ResourcesConfig{
			AnimationDir: "data/animations",
			ScriptDir:    "data/scripts",
		},
	}
}

// LoadBattleConfig 加载战斗配置
// 优先从嵌入资源读取，找不到时读取磁盘文件
func LoadBattleConfig(path string) (*BattleConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		var diskErr error
		data, diskErr = os.ReadFile(path)
		if diskErr != nil {
			return nil, fmt.Errorf("无法读取配置文件 %s: %w", path, diskErr)
		}
	}

	cfg, err := ParseBattleConfig(data)
	if err != nil {
		return nil, fmt.Errorf("配置文件 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// ParseBattleConfig 解析配置，未给出的字段使用默认值
func ParseBattleConfig(data []byte) (*BattleConfig, error) {
	cfg := DefaultBattleConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("无法解析 YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置取值
func (c *BattleConfig) Validate() error {
	if c.StepRate <= 0 {
		return fmt.Errorf("step_rate 必须大于 0，当前为 %d", c.StepRate)
	}
	if c.Field.Cols <= 0 || c.Field.Rows <= 0 {
		return fmt.Errorf("场地尺寸无效: %dx%d", c.Field.Cols, c.Field.Rows)
	}
	if c.Field.RedColumns < 0 || c.Field.RedColumns > c.Field.Cols {
		return fmt.Errorf("red_columns 必须在 0 到 %d 之间，当前为 %d", c.Field.Cols, c.Field.RedColumns)
	}
	if c.Tiles.BrokenRecovery < 0 {
		return fmt.Errorf("broken_recovery 不能为负数")
	}
	if c.Aura.Timer <= 0 {
		return fmt.Errorf("aura.timer 必须大于 0")
	}
	if c.Aura.RemovalGrace < 0 {
		return fmt.Errorf("aura.removal_grace 不能为负数")
	}
	if len(c.Aura.FlyAccel) != 2 {
		return fmt.Errorf("aura.fly_accel 必须是 [x, y]")
	}
	seen := make(map[string]bool)
	for i, t := range c.Aura.Types {
		if _, ok := components.ParseAuraType(t.Type); !ok {
			return fmt.Errorf("aura.types[%d]: 未知的光环类型 %q", i, t.Type)
		}
		if seen[t.Type] {
			return fmt.Errorf("aura.types[%d]: 光环类型 %q 重复", i, t.Type)
		}
		seen[t.Type] = true
		if t.Pool <= 0 {
			return fmt.Errorf("aura.types[%d]: pool 必须大于 0", i)
		}
	}
	return nil
}

// StepDuration 返回每步的时长（秒）
func (c *BattleConfig) StepDuration() float64 {
	return 1.0 / float64(c.StepRate)
}

// BattleOptions 转换为战斗系统参数
// 配置中未列出的光环类型保留默认值
func (c *BattleConfig) BattleOptions() systems.BattleOptions {
	aura := systems.DefaultAuraSettings()
	aura.Timer = c.Aura.Timer
	aura.RemovalGrace = c.Aura.RemovalGrace
	if len(c.Aura.FlyAccel) == 2 {
		aura.FlyAccel = cp.Vector{X: c.Aura.FlyAccel[0], Y: c.Aura.FlyAccel[1]}
	}
	for _, t := range c.Aura.Types {
		if at, ok := components.ParseAuraType(t.Type); ok {
			aura.Types[at] = systems.AuraSpec{Pool: t.Pool, Persistent: t.Persistent}
		}
	}

	return systems.BattleOptions{
		Cols:           c.Field.Cols,
		Rows:           c.Field.Rows,
		RedColumns:     c.Field.RedColumns,
		BrokenRecovery: c.Tiles.BrokenRecovery,
		Aura:           aura,
	}
}
