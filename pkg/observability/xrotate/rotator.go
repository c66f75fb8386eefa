package xrotate

//go:generate mockgen -destination=mock_rotator_test.go -package=xrotate github.com/omeyang/xrolling/pkg/observability/xrotate Sink,Checker

import (
	"io"
	"time"
)

// 编译时断言
var (
	_ io.WriteCloser = (Sink)(nil)
	_ io.WriteCloser = (*Writer)(nil)
)

// Sink 轮转产出的底层写入目标
//
// Writer 总是在持锁状态下调用 Sink，实现本身不必是并发安全的。
type Sink interface {
	io.Writer

	// Flush 将缓冲数据写入底层文件
	Flush() error

	// Close 刷新并关闭
	Close() error
}

// Checker 轮转策略
//
// [Period] 与 [Buffered] 都实现了该接口，自定义策略也可以实现它交给 [Build]。
//
// 扩展新实现时，必须满足以下约定：
//   - 尚未打开过文件时 ShouldRotate 返回 false
//   - NewSink 失败时不得改变 ShouldRotate 的判断依据，保证下一次检查会重试
//   - ShouldRotate 不得 panic，内部错误自行上报并返回 false
type Checker interface {
	// Now 返回策略时区下的当前时间
	Now() time.Time

	// ShouldRotate 判断当前文件是否已到期
	ShouldRotate(now time.Time) bool

	// NewSink 打开 now 对应的新文件
	NewSink(now time.Time) (Sink, error)
}

// Rotator 可手动轮转的写入器
//
// [Writer] 实现了该接口，xlog 等上层组件按接口依赖。
type Rotator interface {
	io.WriteCloser

	// Flush 刷新当前文件
	Flush() error

	// Rotate 立即切换到当前时间对应的文件
	Rotate() error
}

// binder 同一时刻只允许绑定一个 Writer 的策略
type binder interface {
	claim() bool
	unclaim()
}

// errorInheritor 可继承 Writer 错误回调的策略
type errorInheritor interface {
	inheritOnError(fn func(error))
}
