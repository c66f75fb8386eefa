package xrun

import (
	"errors"
	"fmt"
	"os"
)

// ErrSignal 表示因收到系统信号而终止，使用 errors.Is(err, ErrSignal) 判断。
var ErrSignal = errors.New("received signal")

var (
	// ErrNilFunc 服务函数为 nil
	ErrNilFunc = errors.New("xrun: nil function")
	// ErrNilService 服务为 nil
	ErrNilService = errors.New("xrun: nil service")
	// ErrInvalidInterval Ticker 的间隔必须为正数
	ErrInvalidInterval = errors.New("xrun: interval must be positive")
	// ErrInvalidDelay Timer 的延迟不能为负数
	ErrInvalidDelay = errors.New("xrun: delay must not be negative")
	// ErrFinalizerPanic 收尾函数 panic
	ErrFinalizerPanic = errors.New("xrun: finalizer panicked")
)

// SignalError 包含触发终止的信号，Run 收到信号时返回。
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//	    fmt.Printf("received signal: %v\n", sigErr.Signal)
//	}
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

// Is 支持 errors.Is(err, ErrSignal)。
func (e *SignalError) Is(target error) bool {
	return target == ErrSignal
}
