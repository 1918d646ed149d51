// check_resources 检查战斗数据目录中的动画和脚本资源
//
// 用法:
//
//	go run ./cmd/check_resources -root . -config data/battle.yaml
//
// 依次检查:
//   - 配置文件能否解析并通过校验
//   - 动画目录下每个 .yaml 能否解析，列出状态和帧数
//   - 脚本目录下每个 .tengo 能否编译
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/decker502/netbattle/internal/anim"
	"github.com/decker502/netbattle/pkg/config"
	"github.com/decker502/netbattle/pkg/embedded"
	"github.com/decker502/netbattle/pkg/scripting"
)

func main() {
	root := flag.String("root", ".", "项目根目录（包含 data/）")
	configPath := flag.String("config", "data/battle.yaml", "战斗配置文件")
	verbose := flag.Bool("v", false, "列出每个动画状态")
	flag.Parse()

	fsys := os.DirFS(*root)
	embedded.Init(fsys)

	cfg, err := config.LoadBattleConfig(*configPath)
	if err != nil {
		fmt.Printf("❌ 配置: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ 配置: %s (%dx%d, %d steps/s)\n", *configPath, cfg.Field.Cols, cfg.Field.Rows, cfg.StepRate)

	failed := checkAnimations(fsys, cfg.Resources.AnimationDir, *verbose)
	failed += checkScripts(fsys, cfg.Resources.ScriptDir)

	if failed > 0 {
		fmt.Printf("\n%d 个资源有错误\n", failed)
		os.Exit(1)
	}
	fmt.Println("\n所有资源检查通过")
}

func checkAnimations(fsys fs.FS, dir string, verbose bool) int {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		fmt.Printf("❌ %s: %v\n", dir, err)
		return 1
	}
	sort.Strings(files)

	failed := 0
	for _, file := range files {
		doc, err := anim.ParseFS(fsys, file)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			failed++
			continue
		}
		fmt.Printf("✓ %s: %d 个状态\n", file, len(doc.States))
		if !verbose {
			continue
		}
		for _, name := range doc.StateNames() {
			st, _ := doc.State(name)
			fmt.Printf("    %-12s %2d 帧  %.2fs\n", name, len(st.Frames), st.TotalDuration())
		}
	}
	return failed
}

func checkScripts(fsys fs.FS, dir string) int {
	files, err := fs.Glob(fsys, path.Join(dir, "*.tengo"))
	if err != nil {
		fmt.Printf("❌ %s: %v\n", dir, err)
		return 1
	}
	sort.Strings(files)

	// 只编译不运行，不需要生成器
	host := scripting.NewHost(nil)
	failed := 0
	for _, file := range files {
		if _, err := host.CompileFile(fsys, file); err != nil {
			fmt.Printf("❌ %v\n", err)
			failed++
			continue
		}
		fmt.Printf("✓ %s\n", file)
	}
	return failed
}
