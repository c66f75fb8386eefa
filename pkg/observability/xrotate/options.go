package xrotate

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// maxOffset 时区偏移的上限（不含）
const maxOffset = 24 * time.Hour

// periodConfig Period 配置
type periodConfig struct {
	pattern   string
	loc       *time.Location
	threshold time.Duration
	clock     func() time.Time
	fileMode  os.FileMode
	sync      bool
	onError   func(error)

	// err 记录第一个无效选项，构造时返回
	err error
}

func (c *periodConfig) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// PeriodOption Period 配置选项函数
type PeriodOption func(*periodConfig)

// WithPattern 设置时间戳模板
//
// 模板插在基础路径的主名与扩展名之间，如 "[year][month][day]" 生成 "app-20230323.log"。
func WithPattern(pattern string) PeriodOption {
	return func(c *periodConfig) {
		c.pattern = pattern
	}
}

// WithOffset 使用固定的 UTC 偏移计算文件名与轮转边界
//
// 偏移必须是整秒且绝对值小于 24h，否则构造时返回 [ErrInvalidOffset]。
// 默认 UTC。
func WithOffset(offset time.Duration) PeriodOption {
	return func(c *periodConfig) {
		loc, err := FixedOffset(offset)
		if err != nil {
			c.fail(err)
			return
		}
		c.loc = loc
	}
}

// WithLocation 使用指定时区
//
// 带夏令时的时区按日历轮转：切换当天 Daily 周期为 23h 或 25h，
// 回拨重复的那个小时仍写入同一个 Hourly 文件，见 [Period.NextRotation]。
// 配合 [WithThreshold] 的自定义阈值始终按固定时长计算。nil 表示 UTC。
func WithLocation(loc *time.Location) PeriodOption {
	return func(c *periodConfig) {
		if loc == nil {
			loc = time.UTC
		}
		c.loc = loc
	}
}

// WithThreshold 设置自定义轮转阈值
//
// 阈值不能小于粒度单位（如 Daily 至少 24h），否则构造时返回 [ErrInvalidThreshold]。
// 0 表示使用粒度单位。
func WithThreshold(d time.Duration) PeriodOption {
	return func(c *periodConfig) {
		if d < 0 {
			c.fail(fmt.Errorf("%w: %s is negative", ErrInvalidThreshold, d))
			return
		}
		c.threshold = d
	}
}

// WithClock 注入时钟，主要用于测试
func WithClock(clock func() time.Time) PeriodOption {
	return func(c *periodConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithFileMode 设置新建日志文件的权限，默认 0644
//
// 仅允许权限位（0000~0777）。已存在的文件不会被修改权限。
func WithFileMode(mode os.FileMode) PeriodOption {
	return func(c *periodConfig) {
		if mode&^os.FileMode(0o777) != 0 {
			c.fail(fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed", ErrInvalidFileMode, mode))
			return
		}
		c.fileMode = mode
	}
}

// WithSync 设置 Flush 时是否调用 fsync
func WithSync(enabled bool) PeriodOption {
	return func(c *periodConfig) {
		c.sync = enabled
	}
}

// WithOnError 设置文件名解析失败时的错误回调
//
// 未设置时使用所绑定 Writer 的回调，两者都没有时输出到 os.Stderr。
// 回调函数不得向同一 Writer 写入数据。
func WithOnError(fn func(error)) PeriodOption {
	return func(c *periodConfig) {
		c.onError = fn
	}
}

// FixedOffset 返回固定偏移的时区，0 返回 time.UTC
func FixedOffset(offset time.Duration) (*time.Location, error) {
	if offset%time.Second != 0 || offset <= -maxOffset || offset >= maxOffset {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOffset, offset)
	}
	if offset == 0 {
		return time.UTC, nil
	}
	return time.FixedZone(offsetName(offset), int(offset/time.Second)), nil
}

// offsetName 格式化为 "+08:00"、"-05:30"，带秒时为 "+05:30:15"
func offsetName(offset time.Duration) string {
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	secs := int(offset / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	if s != 0 {
		return fmt.Sprintf("%c%02d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%c%02d:%02d", sign, h, m)
}

// writerConfig Writer 配置
type writerConfig struct {
	onError         func(error)
	meterProvider   metric.MeterProvider
	name            string
	breakerFailures uint32
	breakerCooldown time.Duration
	breaker         bool
}

// WriterOption Writer 配置选项函数
type WriterOption func(*writerConfig)

// WithErrorHandler 设置 Writer 的错误回调
//
// 接收轮转失败、收尾刷新失败等不会作为返回值交给调用方的错误。
// 默认输出一行到 os.Stderr。未配置回调的 Period 同样使用它。
//
// 回调函数不得向同一 Writer 写入数据，否则会死锁。
func WithErrorHandler(fn func(error)) WriterOption {
	return func(c *writerConfig) {
		c.onError = fn
	}
}

// WithMeterProvider 设置指标使用的 MeterProvider，默认 otel.GetMeterProvider()
func WithMeterProvider(mp metric.MeterProvider) WriterOption {
	return func(c *writerConfig) {
		if mp != nil {
			c.meterProvider = mp
		}
	}
}

// WithName 设置日志流名称，作为指标的 stream 属性，默认 "default"
func WithName(name string) WriterOption {
	return func(c *writerConfig) {
		c.name = name
	}
}

// WithRotateBreaker 为轮转加熔断
//
// 连续 failures 次打开新文件失败后进入熔断，cooldown 内不再尝试轮转，
// 写入继续落在原文件上；冷却结束后放行一次探测。
// failures 必须大于 0，cooldown 必须为正，否则构建时返回 [ErrInvalidBreaker]。
func WithRotateBreaker(failures uint32, cooldown time.Duration) WriterOption {
	return func(c *writerConfig) {
		c.breaker = true
		c.breakerFailures = failures
		c.breakerCooldown = cooldown
	}
}
