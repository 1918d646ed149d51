package main

import (
	"flag"
	"log"
	"os"

	"github.com/decker502/netbattle/pkg/config"
	"github.com/decker502/netbattle/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/quasilyte/gdata/v2"
)

var (
	// 命令行参数
	configPath = flag.String("config", "data/battle.yaml", "战斗配置文件路径")
	watch      = flag.Bool("watch", false, "从磁盘读取资源并监视动画和脚本变更（热重载）")
	noSave     = flag.Bool("no-save", false, "不使用本地存档（降级模式）")
)

func main() {
	flag.Parse()

	// 热重载模式直接读取工作目录下的 data/，否则使用嵌入资源
	if *watch {
		embedded.Init(os.DirFS("."))
	} else {
		embedded.Init(dataFS)
	}

	cfg, err := config.LoadBattleConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load battle config: %v", err)
	}

	var watcher *config.AnimationWatcher
	if *watch {
		watcher, err = config.NewAnimationWatcher(cfg.Resources.AnimationDir, cfg.Resources.ScriptDir)
		if err != nil {
			log.Printf("[Main] 无法启动资源监视: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	// 存档不可用时进入降级模式
	var store *gdata.Manager
	if !*noSave {
		store, err = gdata.Open(gdata.Config{AppName: "netbattle"})
		if err != nil {
			log.Printf("[Main] 存档不可用，进入降级模式: %v", err)
			store = nil
		}
	}

	sandbox, err := NewSandbox(cfg, config.NewAnimationLibrary(nil), watcher, store)
	if err != nil {
		log.Fatalf("Failed to create sandbox: %v", err)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("NetBattle - 战斗沙盒")
	ebiten.SetTPS(cfg.StepRate)

	if err := ebiten.RunGame(sandbox); err != nil {
		log.Fatal(err)
	}
}
