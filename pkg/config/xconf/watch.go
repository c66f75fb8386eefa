package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 配置重载回调，err 非 nil 表示重载失败（此时 cfg 仍是旧配置）
// 或 fsnotify 报告了错误（包装 ErrWatch）。
type WatchCallback func(cfg Config, err error)

// WatchOption 监视器配置选项
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载。非正值忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watcher 配置文件监视器
//
// 监视配置文件所在目录而非文件本身：编辑器保存时常先删除再创建，
// 或写临时文件后 rename，直接监视文件会丢失事件。
//
// 重载与回调都在 [Watcher.Run] 的 goroutine 上串行执行。
type Watcher struct {
	cfg      *koanfConfig
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	filename string

	mu        sync.Mutex
	running   bool
	stopped   bool
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

// Watch 创建配置文件监视器，需调用 [Watcher.Run] 开始监视。
//
// 只能监视通过 [New] 从文件创建的 Config。
//
// 示例:
//
//	cfg, _ := xconf.New("/etc/xrollctl/config.yaml")
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
//	    if err != nil {
//	        return
//	    }
//	    // 读取新配置
//	})
//	if err != nil {
//	    return err
//	}
//	go w.Run(ctx)
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported config type %T", ErrWatch, cfg)
	}
	if kc.path == "" {
		return nil, ErrReloadUnsupported
	}

	options := &watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: create watcher: %w", ErrWatch, err)
	}

	dir := filepath.Dir(kc.path)
	if err := fsWatcher.Add(dir); err != nil {
		return nil, errors.Join(
			fmt.Errorf("%w: watch directory %s: %w", ErrWatch, dir, err),
			fsWatcher.Close(),
		)
	}

	return &Watcher{
		cfg:      kc,
		fs:       fsWatcher,
		callback: callback,
		debounce: options.debounce,
		filename: filepath.Base(kc.path),
	}, nil
}

// Run 监视配置变更，阻塞直到 ctx 取消或调用 [Watcher.Stop]。
//
// 正常停止返回 nil（或关闭 fsnotify 的错误）。Run 返回后不会再有回调执行。
// 每个 Watcher 只能 Run 一次。
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.stopped:
		w.mu.Unlock()
		return ErrWatcherStopped
	case w.running:
		w.mu.Unlock()
		return ErrWatcherRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.mu.Unlock()
	defer cancel()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return w.close()

		case event, ok := <-w.fs.Events:
			if !ok {
				return w.close()
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return w.close()
			}
			w.notify(ctx, fmt.Errorf("%w: %w", ErrWatch, err))

		case <-timerC:
			timerC = nil
			w.notify(ctx, w.cfg.Reload())
		}
	}
}

// Stop 停止监视，可重复调用，可在回调中调用。
// Stop 只发出停止信号；需要确认回调全部结束时等待 Run 返回。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	cancel, running := w.cancel, w.running
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !running {
		return w.close()
	}
	return nil
}

// relevant 只关心目标文件的写入、创建与 rename
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != w.filename {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) notify(ctx context.Context, err error) {
	if w.callback == nil || ctx.Err() != nil {
		return
	}
	w.callback(w.cfg, err)
}

func (w *Watcher) close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fs.Close()
	})
	return w.closeErr
}
