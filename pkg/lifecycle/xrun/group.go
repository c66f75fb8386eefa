package xrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xrolling/pkg/observability/xlog"
)

// Group 基于 errgroup + context 管理多个服务的并发运行和协调关闭。
//
// 任一服务返回错误或 context 被取消时，所有服务都会收到取消信号。
// 所有服务结束后，按注册的逆序执行 Finally 注册的收尾函数。
//
// Go、Finally、Cancel 可并发调用；Wait 只应调用一次。
//
//	g, ctx := xrun.NewGroup(ctx)
//	w, token, _ := xrotate.Build(daily)
//	g.Finally("close log", w.Close)
//	g.Finally("flush log", func() error { token.Release(); return nil })
//	g.Go("heartbeat", xrun.Ticker(time.Second, true, beat))
//	err := g.Wait()
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions

	mu         sync.Mutex
	finalizers []finalizer
}

type finalizer struct {
	name string
	fn   func() error
}

// NewGroup 创建 Group，返回的 context 在任一服务出错或 Cancel 时取消。
// nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	g := &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}
	for _, f := range options.finalizers {
		g.Finally(f.name, f.fn)
	}
	return g, egCtx
}

// Go 启动名为 name 的服务。fn 应监听 ctx.Done() 并在取消后返回。
// nil fn 返回 ErrNilFunc。
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return fmt.Errorf("%w: service %q", ErrNilFunc, name)
		}
		g.opts.logger.Debug(g.ctx, "service starting", g.attrs(slog.String("service", name))...)
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn(g.ctx, "service exited with error", g.attrs(slog.String("service", name), xlog.Err(err))...)
		} else {
			g.opts.logger.Debug(g.ctx, "service stopped", g.attrs(slog.String("service", name))...)
		}
		return err
	})
}

// Finally 注册收尾函数，在所有服务结束后按注册的逆序执行。
//
// 典型用法是先注册 Writer.Close，再注册 Token.Release：
// 退出时先刷新缓冲，再关闭文件。nil fn 被忽略。
func (g *Group) Finally(name string, fn func() error) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.finalizers = append(g.finalizers, finalizer{name: name, fn: fn})
	g.mu.Unlock()
}

// Wait 等待所有服务结束，然后执行收尾函数。
//
// context.Canceled 被视为正常退出；若通过 Cancel(cause) 或信号设置了退出原因，
// 返回该原因（如 *SignalError）。收尾函数的错误与服务错误通过 errors.Join 合并。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.exitCause(g.eg.Wait())
	g.opts.logger.Debug(context.Background(), "all services stopped", g.attrs()...)

	if ferr := g.runFinalizers(); ferr != nil {
		return errors.Join(err, ferr)
	}
	return err
}

// exitCause 过滤 context.Canceled，保留显式的取消原因。
// 以 causeCtx 判断取消来源：causeCtx 未取消时，Canceled 来自服务内部，原样返回。
func (g *Group) exitCause(err error) error {
	if g.causeCtx.Err() == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

func (g *Group) runFinalizers() error {
	g.mu.Lock()
	fs := g.finalizers
	g.finalizers = nil
	g.mu.Unlock()

	var errs []error
	for i := len(fs) - 1; i >= 0; i-- {
		f := fs[i]
		if err := runFinalizer(f.fn); err != nil {
			g.opts.logger.Warn(context.Background(), "finalizer failed", g.attrs(slog.String("finalizer", f.name), xlog.Err(err))...)
			errs = append(errs, fmt.Errorf("xrun: finalizer %q: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}

// runFinalizer 把 panic 转为错误，后续收尾函数仍会执行
func runFinalizer(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFinalizerPanic, r)
		}
	}()
	return fn()
}

// Cancel 主动取消所有服务，cause 作为 Wait 的返回值。
//
// cause 不应包装 context.Canceled，否则 Wait 会将其视为普通取消。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

func (g *Group) attrs(extra ...slog.Attr) []slog.Attr {
	return append([]slog.Attr{slog.String("group", g.opts.name)}, extra...)
}

// ----------------------------------------------------------------------------
// 便捷函数
// ----------------------------------------------------------------------------

// Service 可由 [Run] 管理的服务，Run 方法阻塞直到 ctx 取消或出错。
// xconf.Watcher 满足此接口。
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc 将函数适配为 Service。
type ServiceFunc func(ctx context.Context) error

// Run 实现 Service。
func (f ServiceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Run 监听信号并运行服务，收到信号时返回 *SignalError。
//
// 信号处理启用时，即使所有服务都已返回 nil，Run 仍等待信号或 ctx 取消。
// 实现 Name() string 的服务以该名称记录日志。
//
//	err := xrun.Run(ctx, []xrun.Option{xrun.WithFinalizer("flush", flush)}, worker)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常退出
//	}
func Run(ctx context.Context, opts []Option, services ...Service) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		signals := g.opts.signals
		// 空切片使用默认信号，signal.Notify 无参调用会订阅所有信号
		if len(signals) == 0 {
			signals = DefaultSignals()
		}
		g.Go("signal", func(ctx context.Context) error {
			return g.waitSignal(ctx, signals)
		})
	}

	for i, svc := range services {
		name := fmt.Sprintf("service-%d", i)
		if svc == nil {
			g.Go(name, func(context.Context) error { return ErrNilService })
			continue
		}
		if n, ok := svc.(interface{ Name() string }); ok {
			name = n.Name()
		}
		g.Go(name, svc.Run)
	}
	return g.Wait()
}

func (g *Group) waitSignal(ctx context.Context, signals []os.Signal) error {
	testc := testSigChan(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	var sig os.Signal
	select {
	case sig = <-testc:
	case sig = <-sigCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.opts.logger.Info(ctx, "received signal", g.attrs(slog.String("signal", sig.String()))...)
	g.cancel(&SignalError{Signal: sig})
	return nil
}
