//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此包用于构建 Android (.aar) 和 iOS (.xcframework) 包。
// 使用 ebitenmobile 工具构建时会自动调用 init() 函数。
//
// 此文件仅在使用 -tags mobile 构建时编译：
//
//	# Android
//	cp -r data mobile/ && ebitenmobile bind -target android -tags mobile -androidapi 23 -javapkg com.decker.wavebreak -o build/android/wavebreak.aar -v ./mobile
//
//	# iOS (仅 macOS)
//	cp -r data mobile/ && ebitenmobile bind -target ios -tags mobile -o build/ios/Wavebreak.xcframework -v ./mobile
package mobile

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2/mobile"

	"github.com/decker502/wavebreak/pkg/app"
	"github.com/decker502/wavebreak/pkg/embedded"
)

func init() {
	// 移动端没有工作目录下的 data/，全部使用内置配置
	embedded.Init(dataFS)

	viewer, err := app.NewApp(app.Config{
		Verbose:              true,
		SchedulerConfigPath:  "data/scheduler.yaml",
		SimulationConfigPath: "data/simulation.yaml",
		AppName:              "wavebreak",
	})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	mobile.SetGame(viewer)
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
