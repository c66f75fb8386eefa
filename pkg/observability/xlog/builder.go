package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xrolling/pkg/observability/xrotate"
)

var (
	// ErrUnknownLevel 无法识别的日志级别
	ErrUnknownLevel = errors.New("xlog: unknown level")
	// ErrUnknownFormat 无法识别的输出格式
	ErrUnknownFormat = errors.New("xlog: unknown format")
	// ErrNilOutput 输出目标为 nil
	ErrNilOutput = errors.New("xlog: nil output")
)

// ReplaceAttrFunc 属性替换函数，返回空 Key 的 Attr 会移除该属性
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器
//
// 遇到第一个配置错误后，后续 Set 操作被跳过，错误由 [Builder.Build] 返回。
// Builder 为一次性使用。
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	attrs       []slog.Attr
	onError     func(error)

	writer *xrotate.Writer
	token  *xrotate.Token

	err error
}

// New 创建配置构建器，默认输出到 stderr、Info 级别、text 格式
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil {
		return b
	}
	if w == nil {
		b.err = ErrNilOutput
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	if b.err != nil {
		return b
	}
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值使用默认的 text
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		b.err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return b
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetReplaceAttr 设置属性替换函数，用于字段重命名、脱敏、过滤
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetAttrs 追加每条日志都携带的固定属性（如服务名、日志流）
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// SetOnError 设置 Handler.Handle 失败时的回调
//
// 回调在写日志的 goroutine 上同步执行，应保持轻量。
// 轮转错误不经过此回调，由 xrotate.WithErrorHandler 单独配置。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetRotation 以按时间轮转的文件作为输出
//
// checker 通常是 *xrotate.Period 或包裹它的 *xrotate.Buffered；opts 透传给 [xrotate.Build]。
// 首个文件在此处同步打开，失败时错误由 [Builder.Build] 返回。
// Build 返回的 cleanup 先释放 Token（刷新缓冲）再关闭 Writer。
//
// 示例：
//
//	daily, _ := xrotate.NewDaily("logs/app.log", xrotate.WithOffset(8*time.Hour))
//	buffered, _ := xrotate.NewBuffered(daily, xrotate.DefaultBufferSize)
//	logger, cleanup, err := xlog.New().
//		SetFormat("json").
//		SetRotation(buffered, xrotate.WithName("app")).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
func (b *Builder) SetRotation(checker xrotate.Checker, opts ...xrotate.WriterOption) *Builder {
	if b.err != nil {
		return b
	}
	if b.writer != nil {
		// 重复设置时关闭上一个，避免其 Period 保持占用
		_ = b.releaseRotation()
	}
	w, token, err := xrotate.Build(checker, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.writer = w
	b.token = token
	b.output = w
	return b
}

// Rotation 返回 SetRotation 创建的 Writer，未设置时为 nil
func (b *Builder) Rotation() *xrotate.Writer {
	return b.writer
}

func (b *Builder) releaseRotation() error {
	if b.writer == nil {
		return nil
	}
	w, token := b.writer, b.token
	b.writer, b.token = nil, nil
	token.Release()
	return w.Close()
}

// Build 构建 Logger
//
// 返回值：
//   - LoggerWithLevel: 日志实例
//   - func() error: 清理函数，只执行一次；设置了轮转时释放 Token 并关闭 Writer
//   - error: 配置错误，此时已打开的轮转文件会被关闭
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		_ = b.releaseRotation()
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}

	var handler slog.Handler
	switch b.format {
	case "json":
		handler = slog.NewJSONHandler(b.output, opts)
	default:
		handler = slog.NewTextHandler(b.output, opts)
	}
	if len(b.attrs) > 0 {
		handler = handler.WithAttrs(b.attrs)
	}

	logger := &xlogger{
		handler:        handler,
		levelVar:       b.levelVar,
		onError:        b.onError,
		errorCount:     new(atomic.Uint64),
		addSource:      b.addSource,
		inErrorHandler: new(atomic.Bool),
	}

	return logger, b.createCleanup(), nil
}

func (b *Builder) createCleanup() func() error {
	var once sync.Once
	w, token := b.writer, b.token

	return func() error {
		var err error
		once.Do(func() {
			if w == nil {
				return
			}
			token.Release()
			err = w.Close()
		})
		return err
	}
}
