package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var _ LoggerWithLevel = (*xlogger)(nil)

const (
	initialStackSize = 4096
	maxStackSize     = 64 * 1024
)

var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

// xlogger Logger 实现
//
// 派生 Logger 共享 levelVar、errorCount 与 inErrorHandler。
type xlogger struct {
	handler        slog.Handler
	levelVar       *slog.LevelVar
	onError        func(error)
	errorCount     *atomic.Uint64
	addSource      bool
	inErrorHandler *atomic.Bool
}

// log 跳过 runtime.Callers、log 与公开方法三帧，定位到业务调用方
//
//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, extra ...slog.Attr) {
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		runtime.Callers(3, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	r.AddAttrs(extra...)

	if err := l.handler.Handle(ctx, r); err != nil {
		l.handleError(err)
	}
}

// handleError 记录 Handler.Handle 失败
//
// 回调期间再次出错不会重入；回调 panic 被吞掉并计数。
func (l *xlogger) handleError(err error) {
	l.errorCount.Add(1)
	if l.onError == nil || !l.inErrorHandler.CompareAndSwap(false, true) {
		return
	}
	defer l.inErrorHandler.Store(false)
	defer func() {
		if r := recover(); r != nil {
			l.errorCount.Add(1)
		}
	}()
	l.onError(err)
}

//go:noinline
func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

//go:noinline
func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

//go:noinline
func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

//go:noinline
func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

//go:noinline
func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}
	l.log(ctx, slog.LevelError, msg, attrs, slog.String(KeyStack, captureStack()))
}

// captureStack 返回当前 goroutine 的调用栈，超过 maxStackSize 时截断
func captureStack() string {
	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialStackSize)
		bufp = &buf
	}
	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}
	// 归还前先拷贝，未扩容时 buf 与池中缓冲共享底层数组
	s := string(buf[:n])
	stackPool.Put(bufp)
	return s
}

func (l *xlogger) derive(h slog.Handler) *xlogger {
	return &xlogger{
		handler:        h,
		levelVar:       l.levelVar,
		onError:        l.onError,
		errorCount:     l.errorCount,
		addSource:      l.addSource,
		inErrorHandler: l.inErrorHandler,
	}
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return l.derive(l.handler.WithAttrs(attrs))
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return l.derive(l.handler.WithGroup(name))
}

func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}

// ErrorCount 返回内部写入失败次数（含回调 panic）
func (l *xlogger) ErrorCount() uint64 {
	return l.errorCount.Load()
}
