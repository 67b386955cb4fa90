//go:build mobile

// embed.go - 移动端内置配置声明
//
// 此文件仅在使用 -tags mobile 构建时编译。
// 构建前先把项目根目录的 data/ 复制到 mobile/data/：
//
//	cp -r data mobile/
//	go build -tags mobile ./mobile
package mobile

import "embed"

//go:embed data/scheduler.yaml data/simulation.yaml
var dataFS embed.FS
