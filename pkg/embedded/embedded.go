// Package embedded 提供内置配置文件的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量必须声明在项目根目录（embed.go）或 mobile 包中。
// 本包保存该文件系统，让 app 在磁盘上找不到配置时回退到内置版本。
//
// 使用前必须调用 Init() 初始化。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	dataFS      fs.FS
	initialized bool
)

// ErrNotInitialized 未调用 Init
var ErrNotInitialized = errors.New("embedded package not initialized, call Init() first")

// Init 设置内置文件系统
// 必须在 main() 开始时、任何配置加载之前调用
func Init(data fs.FS) {
	dataFS = data
	initialized = data != nil
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return initialized
}

// normalize 标准化为 embed.FS 使用的路径形式
// 路径必须以 "data/" 开头
func normalize(path string) (string, error) {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	if !strings.HasPrefix(path, "data/") {
		return "", fmt.Errorf("unknown resource path prefix: %s (must start with 'data/')", path)
	}
	return path, nil
}

// ReadFile 读取内置文件
func ReadFile(path string) ([]byte, error) {
	if !initialized {
		return nil, ErrNotInitialized
	}
	path, err := normalize(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(dataFS, path)
}

// Exists 检查文件是否存在于内置文件系统中
func Exists(path string) bool {
	if !initialized {
		return false
	}
	path, err := normalize(path)
	if err != nil {
		return false
	}
	_, err = fs.Stat(dataFS, path)
	return err == nil
}

// ReadFileOrEmbedded 优先读取磁盘文件，不存在时回退到内置版本
//
// 返回：
//   - []byte: 文件内容
//   - bool: 是否来自内置版本
//   - error: 两处都读取失败
func ReadFileOrEmbedded(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || !Exists(path) {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data, embeddedErr := ReadFile(path)
	if embeddedErr != nil {
		return nil, false, fmt.Errorf("failed to read embedded %s: %w", path, embeddedErr)
	}
	return data, true, nil
}
