package xconf

import "errors"

// 配置加载和解析相关错误。
var (
	ErrEmptyPath         = errors.New("xconf: empty config path")
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")
	ErrLoadFailed        = errors.New("xconf: failed to load config")
	ErrParseFailed       = errors.New("xconf: failed to parse config")
	ErrUnmarshalFailed   = errors.New("xconf: failed to unmarshal config")

	// ErrReloadUnsupported 从字节数据创建的配置无法重载或监视。
	ErrReloadUnsupported = errors.New("xconf: config created from bytes cannot be reloaded")
)

// 监视相关错误。
var (
	ErrWatch          = errors.New("xconf: watch error")
	ErrWatcherRunning = errors.New("xconf: watcher already running")
	ErrWatcherStopped = errors.New("xconf: watcher stopped")
)
