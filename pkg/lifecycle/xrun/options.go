package xrun

import (
	"os"

	"github.com/omeyang/xrolling/pkg/observability/xlog"
)

// Option 配置 Group 的选项函数。
type Option func(*groupOptions)

type groupOptions struct {
	logger          xlog.Logger
	name            string
	signals         []os.Signal
	noSignalHandler bool
	finalizers      []finalizer
}

func defaultOptions() *groupOptions {
	return &groupOptions{
		logger: defaultLogger(),
		name:   "xrun",
	}
}

// defaultLogger 输出到 stderr 的 Info 级别 text 日志
func defaultLogger() xlog.Logger {
	logger, _, err := xlog.New().Build()
	if err != nil {
		// 默认配置不会出错
		panic(err)
	}
	return logger
}

// WithLogger 设置生命周期日志（服务启动、退出、信号、收尾失败），nil 忽略。
func WithLogger(logger xlog.Logger) Option {
	return func(o *groupOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 Group 名称，用于日志中的 group 字段。默认 "xrun"。
func WithName(name string) Option {
	return func(o *groupOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 设置 Run 监听的信号，默认 DefaultSignals()。
func WithSignals(signals []os.Signal) Option {
	copied := append([]os.Signal(nil), signals...)
	return func(o *groupOptions) {
		o.signals = copied
	}
}

// WithoutSignalHandler 禁用 Run 的信号处理。
func WithoutSignalHandler() Option {
	return func(o *groupOptions) {
		o.noSignalHandler = true
	}
}

// WithFinalizer 在创建 Group 时注册收尾函数，等价于 [Group.Finally]。
// 多个 WithFinalizer 同样按逆序执行。
func WithFinalizer(name string, fn func() error) Option {
	return func(o *groupOptions) {
		if fn != nil {
			o.finalizers = append(o.finalizers, finalizer{name: name, fn: fn})
		}
	}
}
