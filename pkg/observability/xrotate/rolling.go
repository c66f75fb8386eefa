package xrotate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Writer 并发安全的轮转写入器
//
// 每次 Write 只加一次锁，锁内依次完成：取当前时间、判断是否到期、
// 必要时换文件、写入。换文件的顺序是刷新旧文件（失败则放弃本次轮转）、
// 打开新文件、替换、关闭旧文件。
//
// 轮转失败不影响写入：错误交给回调，数据继续写入原文件，下一次写入会重试。
// Write 的返回值只反映写当前文件的结果，原样返回。
type Writer struct {
	mu      sync.Mutex
	checker Checker
	sink    Sink
	closed  bool

	name    string
	onError func(error)
	metrics *writerMetrics
	breaker *gobreaker.CircuitBreaker[Sink]
}

// 编译时断言
var _ Rotator = (*Writer)(nil)

// Token 收尾句柄
//
// 与 Writer 共享同一个文件。Release 时加锁刷新一次，之后重复调用无效果。
// Writer 常被全局日志组件长期持有，不能指望它自然析构，
// 进程退出前必须显式调用 Release，否则缓冲中的数据可能丢失。
//
// Release 只刷新不关闭，关闭由 [Writer.Close] 负责。
type Token struct {
	w    *Writer
	once sync.Once
}

// Build 基于策略构建写入器
//
// 立即打开第一个文件，失败时返回错误。返回的 Token 必须在进程退出前 Release。
//
//	w, token, err := xrotate.Build(checker, xrotate.WithName("access"))
//	if err != nil {
//	    return err
//	}
//	defer token.Release()
func Build(checker Checker, opts ...WriterOption) (*Writer, *Token, error) {
	if checker == nil {
		return nil, nil, ErrNilChecker
	}

	var cfg writerConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.breaker && (cfg.breakerFailures == 0 || cfg.breakerCooldown <= 0) {
		return nil, nil, fmt.Errorf("%w: failures=%d cooldown=%s, both must be positive",
			ErrInvalidBreaker, cfg.breakerFailures, cfg.breakerCooldown)
	}

	metrics, err := newWriterMetrics(cfg.meterProvider, cfg.name)
	if err != nil {
		return nil, nil, fmt.Errorf("xrotate: create metrics: %w", err)
	}

	bd, _ := checker.(binder)
	if bd != nil && !bd.claim() {
		return nil, nil, ErrCheckerInUse
	}
	if ei, ok := checker.(errorInheritor); ok {
		ei.inheritOnError(cfg.onError)
	}

	sink, err := checker.NewSink(checker.Now())
	if err != nil {
		if bd != nil {
			bd.unclaim()
		}
		return nil, nil, fmt.Errorf("xrotate: open initial file: %w", err)
	}

	w := &Writer{
		checker: checker,
		sink:    sink,
		name:    cfg.name,
		onError: cfg.onError,
		metrics: metrics,
	}
	if cfg.breaker {
		w.breaker = newRotateBreaker(cfg.name, cfg.breakerFailures, cfg.breakerCooldown)
	}
	return w, &Token{w: w}, nil
}

func newRotateBreaker(name string, failures uint32, cooldown time.Duration) *gobreaker.CircuitBreaker[Sink] {
	if name == "" {
		name = defaultStreamName
	}
	return gobreaker.NewCircuitBreaker[Sink](gobreaker.Settings{
		Name:        "xrotate." + name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})
}

// Write 实现 io.Writer 接口
//
// 关闭后返回 [ErrClosed]。
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return 0, ErrClosed
	}

	var rotErr error
	now := w.checker.Now()
	if w.checker.ShouldRotate(now) {
		rotErr = w.swapLocked(now)
	}
	n, err := w.sink.Write(p)
	w.mu.Unlock()

	w.metrics.recordWrite(n, err)
	// 熔断期间的跳过是预期行为，不上报
	if rotErr != nil && !errors.Is(rotErr, ErrRotateSuppressed) {
		report(w.onError, rotErr)
	}
	return n, err
}

// Flush 刷新当前文件
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.sink.Flush()
}

// Rotate 立即切换到当前时间对应的文件
//
// 不检查是否到期。同一周期内调用会以追加方式重新打开同名文件，
// 适用于文件被外部移走之后。错误直接返回，失败时原文件继续使用。
func (w *Writer) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.swapLocked(w.checker.Now())
}

// Close 刷新并关闭当前文件
//
// 关闭后 Write、Flush、Rotate 返回 [ErrClosed]，重复调用 Close 也返回 [ErrClosed]。
// 关闭后策略解除绑定，可以再用于新的 Writer。
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.closed = true
	err := w.sink.Close()
	w.mu.Unlock()

	if bd, ok := w.checker.(binder); ok {
		bd.unclaim()
	}
	return err
}

// Path 返回当前文件路径，Sink 无法报告路径时返回空串
func (w *Writer) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return SinkPath(w.sink)
}

// Name 返回日志流名称
func (w *Writer) Name() string { return w.name }

// swapLocked 换文件，调用方必须持有 w.mu
//
// 新文件打开成功后才替换，旧文件关闭失败不影响替换结果。
func (w *Writer) swapLocked(now time.Time) error {
	start := time.Now()
	next, err := w.openNext(now)
	if err != nil {
		if errors.Is(err, ErrRotateSuppressed) {
			w.metrics.recordRotate(outcomeSuppressed, 0)
			return err
		}
		w.metrics.recordRotate(outcomeError, time.Since(start))
		return fmt.Errorf("%w: %w", ErrRotate, err)
	}

	old := w.sink
	w.sink = next
	w.metrics.recordRotate(outcomeOK, time.Since(start))

	if err := old.Close(); err != nil {
		return fmt.Errorf("xrotate: close previous file: %w", err)
	}
	return nil
}

// openNext 刷新旧文件并打开新文件，配置了熔断时经过熔断器
func (w *Writer) openNext(now time.Time) (Sink, error) {
	step := func() (Sink, error) {
		if err := w.sink.Flush(); err != nil {
			return nil, fmt.Errorf("flush current file: %w", err)
		}
		next, err := w.checker.NewSink(now)
		if err != nil {
			return nil, fmt.Errorf("open new file: %w", err)
		}
		return next, nil
	}
	if w.breaker == nil {
		return step()
	}

	next, err := w.breaker.Execute(step)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrRotateSuppressed, err)
	}
	return next, err
}

// Release 刷新共享文件，只执行一次
//
// 刷新失败交给 Writer 的错误回调。Writer 已关闭时什么也不做。
func (t *Token) Release() {
	if t == nil || t.w == nil {
		return
	}
	t.once.Do(func() {
		w := t.w
		w.mu.Lock()
		var err error
		if !w.closed {
			err = w.sink.Flush()
		}
		w.mu.Unlock()
		if err != nil {
			report(w.onError, fmt.Errorf("xrotate: final flush: %w", err))
		}
	})
}
