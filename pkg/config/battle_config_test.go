package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decker502/netbattle/pkg/components"
)

// TestDefaultBattleConfig 测试默认配置有效且与默认战斗参数一致
func TestDefaultBattleConfig(t *testing.T) {
	cfg := DefaultBattleConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	opts := cfg.BattleOptions()
	if opts.Cols != 6 || opts.Rows != 3 || opts.RedColumns != 3 {
		t.Errorf("Unexpected field size %dx%d red=%d", opts.Cols, opts.Rows, opts.RedColumns)
	}
	if opts.Aura.Types[components.Barrier10].Pool != 100 {
		t.Errorf("Barrier10 pool should be 100, got %d", opts.Aura.Types[components.Barrier10].Pool)
	}
	if cfg.StepDuration() != 1.0/60 {
		t.Errorf("Unexpected step duration %f", cfg.StepDuration())
	}
}

// TestParseBattleConfigOverrides 测试部分字段覆盖默认值
func TestParseBattleConfigOverrides(t *testing.T) {
	cfg, err := ParseBattleConfig([]byte(`
step_rate: 30
field:
  cols: 8
  rows: 4
  red_columns: 4
aura:
  removal_grace: 0.5
  fly_accel: [1, -2]
  types:
    - type: aura_100
      pool: 150
`))
	if err != nil {
		t.Fatalf("ParseBattleConfig failed: %v", err)
	}
	if cfg.StepRate != 30 || cfg.Field.Cols != 8 || cfg.Field.RedColumns != 4 {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if cfg.Aura.Timer != 50 {
		t.Errorf("Unset timer should keep the default, got %f", cfg.Aura.Timer)
	}
	if cfg.Tiles.BrokenRecovery != 10 {
		t.Errorf("Unset recovery should keep the default, got %f", cfg.Tiles.BrokenRecovery)
	}

	opts := cfg.BattleOptions()
	if opts.Aura.Types[components.Aura100].Pool != 150 {
		t.Errorf("Aura100 pool should be overridden, got %d", opts.Aura.Types[components.Aura100].Pool)
	}
	if opts.Aura.Types[components.Barrier500].Pool != 500 {
		t.Error("Types missing from the file keep their defaults")
	}
	if opts.Aura.FlyAccel.X != 1 || opts.Aura.FlyAccel.Y != -2 || opts.Aura.RemovalGrace != 0.5 {
		t.Errorf("Aura settings not applied: %+v", opts.Aura)
	}
}

// TestParseBattleConfigInvalid 测试无效配置
func TestParseBattleConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"step rate", "step_rate: 0", "step_rate"},
		{"field size", "field: {cols: 0}", "场地尺寸"},
		{"red columns", "field: {red_columns: 9}", "red_columns"},
		{"fly accel", "aura: {fly_accel: [1]}", "fly_accel"},
		{"unknown aura", "aura: {types: [{type: aura_7, pool: 1}]}", "未知的光环类型"},
		{"duplicate aura", "aura: {types: [{type: aura_100, pool: 1}, {type: aura_100, pool: 2}]}", "重复"},
		{"bad yaml", "field: [", "YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBattleConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error %q should mention %q", err, tt.want)
			}
		})
	}
}

// TestLoadBattleConfigFromDisk 测试未初始化嵌入资源时读取磁盘文件
func TestLoadBattleConfigFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.yaml")
	if err := os.WriteFile(path, []byte("step_rate: 120\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadBattleConfig(path)
	if err != nil {
		t.Fatalf("LoadBattleConfig failed: %v", err)
	}
	if cfg.StepRate != 120 {
		t.Errorf("Expected 120, got %d", cfg.StepRate)
	}

	if _, err := LoadBattleConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing file")
	}
}
