package xrotate

import (
	"bufio"
	"errors"
	"fmt"
	"time"
)

// DefaultBufferSize 默认缓冲区大小（32 KiB）
const DefaultBufferSize = 32 << 10

// Buffered 缓冲装饰器
//
// 轮转判断原样交给内层策略，只把内层产出的 Sink 包一层固定大小的内存缓冲。
// 可以嵌套，但必须是交给 [Build] 的最外层，这样轮转前的 Flush 才能先清空缓冲再关闭旧文件。
type Buffered struct {
	inner Checker
	size  int
}

// 编译时断言
var _ Checker = (*Buffered)(nil)

// NewBuffered 为策略加缓冲
//
// size 必须为正数，一般使用 [DefaultBufferSize]。
func NewBuffered(inner Checker, size int) (*Buffered, error) {
	if inner == nil {
		return nil, ErrNilChecker
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, size)
	}
	return &Buffered{inner: inner, size: size}, nil
}

// Inner 返回被装饰的策略
func (b *Buffered) Inner() Checker { return b.inner }

// Size 返回缓冲区大小
func (b *Buffered) Size() int { return b.size }

// Now 委托给内层策略
func (b *Buffered) Now() time.Time { return b.inner.Now() }

// ShouldRotate 委托给内层策略
func (b *Buffered) ShouldRotate(now time.Time) bool { return b.inner.ShouldRotate(now) }

// NewSink 打开内层 Sink 并加缓冲
func (b *Buffered) NewSink(now time.Time) (Sink, error) {
	inner, err := b.inner.NewSink(now)
	if err != nil {
		return nil, err
	}
	return &bufferedSink{buf: bufio.NewWriterSize(inner, b.size), inner: inner}, nil
}

func (b *Buffered) claim() bool {
	if bd, ok := b.inner.(binder); ok {
		return bd.claim()
	}
	return true
}

func (b *Buffered) unclaim() {
	if bd, ok := b.inner.(binder); ok {
		bd.unclaim()
	}
}

func (b *Buffered) inheritOnError(fn func(error)) {
	if ei, ok := b.inner.(errorInheritor); ok {
		ei.inheritOnError(fn)
	}
}

// bufferedSink 带内存缓冲的 Sink
type bufferedSink struct {
	buf   *bufio.Writer
	inner Sink
}

func (s *bufferedSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// Flush 先清空缓冲，再逐层刷新内层
func (s *bufferedSink) Flush() error {
	if err := s.buf.Flush(); err != nil {
		return err
	}
	return s.inner.Flush()
}

// Close 清空缓冲后关闭内层，缓冲清空失败也会关闭
func (s *bufferedSink) Close() error {
	return errors.Join(s.buf.Flush(), s.inner.Close())
}

// Buffered 返回尚未写入内层的字节数
func (s *bufferedSink) Buffered() int { return s.buf.Buffered() }

func (s *bufferedSink) Path() string { return SinkPath(s.inner) }
