package xrun

import (
	"context"
	"os"
	"syscall"
	"time"
)

// DefaultSignals 返回默认监听的信号：SIGHUP、SIGINT、SIGTERM、SIGQUIT。
// 每次调用返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// testSigChanKey 测试中通过 context 注入信号，避免向进程发送真实信号
type testSigChanKey struct{}

func testSigChan(ctx context.Context) <-chan os.Signal {
	c, ok := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	if !ok {
		return nil
	}
	return c
}

func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}

// Ticker 返回周期执行 fn 的服务函数，immediate 为 true 时启动即执行一次。
//
// interval 必须为正数。fn 返回错误时服务退出；ctx 取消时返回 ctx.Err()。
//
//	g.Go("heartbeat", xrun.Ticker(time.Second, true, func(ctx context.Context) error {
//	    logger.Info(ctx, "heartbeat")
//	    return nil
//	}))
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}

		if immediate {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Timer 返回延迟 delay 后执行一次 fn 的服务函数。delay 为 0 时立即执行，负数返回 ErrInvalidDelay。
func Timer(delay time.Duration, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if delay < 0 {
			return ErrInvalidDelay
		}
		if fn == nil {
			return ErrNilFunc
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if delay == 0 {
			return fn(ctx)
		}

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			return fn(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Flusher 可周期刷新的输出，如 *xrotate.Writer
type Flusher interface {
	Flush() error
}

// FlushEvery 返回周期调用 f.Flush 的服务函数。
//
// 带缓冲的轮转输出在低流量时数据可能长时间停留在内存中，周期刷新限制了丢失窗口。
// 刷新失败交给 onError（可为 nil），服务继续运行。
func FlushEvery(interval time.Duration, f Flusher, onError func(error)) func(ctx context.Context) error {
	if f == nil {
		return func(context.Context) error { return ErrNilFunc }
	}
	return Ticker(interval, false, func(context.Context) error {
		if err := f.Flush(); err != nil && onError != nil {
			onError(err)
		}
		return nil
	})
}
