package xrotate

import (
	"errors"
	"fmt"
	"os"
)

// 构造与配置错误
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidPattern 时间戳模板语法错误（未知组件、未闭合的 "["、空模板）
	ErrInvalidPattern = errors.New("xrotate: invalid pattern")

	// ErrMissingField 模板缺少当前周期必需的字段
	ErrMissingField = errors.New("xrotate: pattern is missing a required field")

	// ErrDuplicateField 模板中同一字段出现多次
	ErrDuplicateField = errors.New("xrotate: pattern repeats a field")

	// ErrInvalidGranularity 未知的轮转粒度
	ErrInvalidGranularity = errors.New("xrotate: invalid granularity")

	// ErrInvalidOffset 时区偏移无效（必须是整秒且绝对值小于 24h）
	ErrInvalidOffset = errors.New("xrotate: invalid offset")

	// ErrInvalidThreshold 轮转阈值小于粒度单位
	ErrInvalidThreshold = errors.New("xrotate: invalid threshold")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")

	// ErrInvalidBufferSize 缓冲区大小必须为正数
	ErrInvalidBufferSize = errors.New("xrotate: invalid buffer size")

	// ErrInvalidBreaker 轮转熔断参数无效
	ErrInvalidBreaker = errors.New("xrotate: invalid rotate breaker")

	// ErrNilChecker Checker 为 nil
	ErrNilChecker = errors.New("xrotate: checker is nil")

	// ErrCheckerInUse Period 已经绑定到另一个 Writer
	ErrCheckerInUse = errors.New("xrotate: checker already bound to a writer")
)

// 运行期错误
var (
	// ErrParse 文件名与模板不匹配，或字段不是合法数字
	ErrParse = errors.New("xrotate: cannot parse file name")

	// ErrNoActiveFile 尚未打开任何文件
	ErrNoActiveFile = errors.New("xrotate: no active file")

	// ErrRotate 轮转失败（刷新旧文件或打开新文件出错），原文件继续使用
	ErrRotate = errors.New("xrotate: rotation failed")

	// ErrRotateSuppressed 连续轮转失败触发熔断，冷却期内跳过轮转
	ErrRotateSuppressed = errors.New("xrotate: rotation suppressed by breaker")

	// ErrClosed 写入器已关闭
	ErrClosed = errors.New("xrotate: writer is closed")
)

// stderrReporter 默认的错误上报通道
func stderrReporter(err error) {
	fmt.Fprintln(os.Stderr, err)
}

// report 将内部错误交给回调
//
// 不使用 slog：Writer 本身通常就是 slog 的输出目标，失败时再写日志会递归。
// 回调 panic 被 recover 隔离。
func report(fn func(error), err error) {
	if err == nil {
		return
	}
	if fn == nil {
		fn = stderrReporter
	}
	defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
	fn(err)
}
