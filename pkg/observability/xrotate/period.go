package xrotate

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xrolling/pkg/util/xfile"
)

// Granularity 轮转粒度
type Granularity uint8

// 支持的轮转粒度
const (
	Minute Granularity = iota + 1
	Hour
	Day
)

// 各粒度的默认时间戳模板
const (
	MinutePattern = "[year]-[month]-[day]-[hour]-[minute]"
	HourlyPattern = "[year]-[month]-[day]-[hour]"
	DailyPattern  = "[year]-[month]-[day]"
)

// Unit 返回粒度对应的默认轮转阈值
func (g Granularity) Unit() time.Duration {
	switch g {
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	case Day:
		return 24 * time.Hour
	default:
		return 0
	}
}

// DefaultPattern 返回粒度对应的默认模板
func (g Granularity) DefaultPattern() string {
	switch g {
	case Minute:
		return MinutePattern
	case Hour:
		return HourlyPattern
	case Day:
		return DailyPattern
	default:
		return ""
	}
}

// Fields 返回模板中必须出现的字段，也是还原周期起点时使用的字段
func (g Granularity) Fields() []Field {
	switch g {
	case Minute:
		return []Field{FieldYear, FieldMonth, FieldDay, FieldHour, FieldMinute}
	case Hour:
		return []Field{FieldYear, FieldMonth, FieldDay, FieldHour}
	case Day:
		return []Field{FieldYear, FieldMonth, FieldDay}
	default:
		return nil
	}
}

func (g Granularity) String() string {
	switch g {
	case Minute:
		return "minute"
	case Hour:
		return "hourly"
	case Day:
		return "daily"
	default:
		return fmt.Sprintf("Granularity(%d)", uint8(g))
	}
}

func (g Granularity) valid() bool {
	return g >= Minute && g <= Day
}

// ParseGranularity 解析粒度名称（不区分大小写）
//
// 接受 "minute"/"minutely"、"hour"/"hourly"、"day"/"daily"。
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minute", "minutely":
		return Minute, nil
	case "hour", "hourly":
		return Hour, nil
	case "day", "daily":
		return Day, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// Period 按固定时间周期轮转的策略
//
// 唯一的状态是当前活跃文件路径。周期起点不单独保存，每次检查时
// 都从活跃文件名中解析出来：年月日走 [Template.Extract]，时、分走
// [Template.FieldAt] 按固定偏移截取。
//
// 周期起点只取粒度必需的字段：Daily 模板里即使带 [hour]，也按当日零点计算。
//
// 一个 Period 同一时刻只能绑定到一个 [Writer]。
type Period struct {
	gran      Granularity
	tmpl      *Template
	loc       *time.Location
	threshold time.Duration
	clock     func() time.Time
	fileMode  os.FileMode
	sync      bool

	mu        sync.Mutex
	active    string
	onError   func(error)
	inherited func(error)

	bound atomic.Bool
}

// 编译时断言
var _ Checker = (*Period)(nil)

// NewMinute 创建按分钟轮转的策略
func NewMinute(path string, opts ...PeriodOption) (*Period, error) {
	return NewPeriod(Minute, path, opts...)
}

// NewHourly 创建按小时轮转的策略
func NewHourly(path string, opts ...PeriodOption) (*Period, error) {
	return NewPeriod(Hour, path, opts...)
}

// NewDaily 创建按天轮转的策略
func NewDaily(path string, opts ...PeriodOption) (*Period, error) {
	return NewPeriod(Day, path, opts...)
}

// NewPeriod 创建指定粒度的轮转策略
//
// 参数:
//   - g: 轮转粒度
//   - path: 基础文件路径，如 "logs/app.log"
//   - opts: 可选配置项
//
// 模板缺少粒度必需的字段、字段重复、选项无效时直接返回错误，不会延迟到写入时。
// 构造时不创建目录也不打开文件。
func NewPeriod(g Granularity, path string, opts ...PeriodOption) (*Period, error) {
	if !g.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGranularity, uint8(g))
	}
	if path == "" {
		return nil, ErrEmptyFilename
	}

	cfg := periodConfig{
		pattern:  g.DefaultPattern(),
		loc:      time.UTC,
		clock:    time.Now,
		fileMode: xfile.DefaultFilePerm,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.err != nil {
		return nil, cfg.err
	}

	threshold := g.Unit()
	if cfg.threshold != 0 {
		if cfg.threshold < threshold {
			return nil, fmt.Errorf("%w: %s must be at least %s for %s", ErrInvalidThreshold, cfg.threshold, threshold, g)
		}
		threshold = cfg.threshold
	}

	safePath, err := xfile.SanitizePath(path)
	if err != nil {
		return nil, err
	}

	tmpl, err := NewTemplate(safePath, cfg.pattern)
	if err != nil {
		return nil, err
	}
	for _, f := range g.Fields() {
		if tmpl.Count(f) == 0 {
			return nil, fmt.Errorf("%w: %s pattern %q needs [%s]", ErrMissingField, g, cfg.pattern, f)
		}
	}

	return &Period{
		gran:      g,
		tmpl:      tmpl,
		loc:       cfg.loc,
		threshold: threshold,
		clock:     cfg.clock,
		fileMode:  cfg.fileMode,
		sync:      cfg.sync,
		onError:   cfg.onError,
	}, nil
}

// Granularity 返回轮转粒度
func (p *Period) Granularity() Granularity { return p.gran }

// Template 返回编译后的路径模板
func (p *Period) Template() *Template { return p.tmpl }

// Threshold 返回轮转阈值
func (p *Period) Threshold() time.Duration { return p.threshold }

// Location 返回文件名与轮转判断使用的时区
func (p *Period) Location() *time.Location { return p.loc }

// Now 返回策略时区下的当前时间
func (p *Period) Now() time.Time {
	return p.clock().In(p.loc)
}

// ActivePath 返回当前活跃文件路径，尚未打开文件时返回空串
func (p *Period) ActivePath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Previous 从活跃文件名还原当前周期的起点
//
// 尚未打开文件时返回 [ErrNoActiveFile]，文件名无法解析时返回包装了 [ErrParse] 的错误。
func (p *Period) Previous() (time.Time, error) {
	active := p.ActivePath()
	if active == "" {
		return time.Time{}, ErrNoActiveFile
	}
	return p.StartOf(active)
}

// StartOf 返回 path 所属周期的起点
//
// 年月日取自完整解析，时分按字段的固定偏移单独读取；只使用粒度要求的字段。
func (p *Period) StartOf(path string) (time.Time, error) {
	st, err := p.tmpl.Extract(path)
	if err != nil {
		return time.Time{}, err
	}
	start := Stamp{Year: st.Year, Month: st.Month, Day: st.Day}
	for _, f := range p.gran.Fields() {
		if f != FieldHour && f != FieldMinute {
			continue
		}
		v, err := p.tmpl.FieldAt(path, f)
		if err != nil {
			return time.Time{}, err
		}
		start.set(f, v)
	}
	return start.Time(p.loc), nil
}

// ShouldRotate 判断当前文件是否已到期
//
// 没有活跃文件时返回 false。文件名解析失败时上报错误并返回 false，
// 不会因为状态损坏而反复轮转。到期判断是闭区间：now >= [Period.NextRotation]。
func (p *Period) ShouldRotate(now time.Time) bool {
	prev, err := p.Previous()
	if err != nil {
		if !errors.Is(err, ErrNoActiveFile) {
			report(p.reporter(), err)
		}
		return false
	}
	return !now.Before(p.NextRotation(prev))
}

// NextRotation 返回起点为 start 的周期的到期时刻
//
// 自定义阈值（不等于粒度单位）按固定时长计算：start + 阈值。
// 其余情况按策略时区的日历计算下一个周期的起点：带夏令时的时区里，
// 切换当天的 Daily 周期是 23h 或 25h，回拨时重复的那个小时写入同一个 Hourly 文件。
// 固定偏移时区下两种算法结果相同。
func (p *Period) NextRotation(start time.Time) time.Time {
	unit := p.gran.Unit()
	if p.threshold != unit {
		return start.Add(p.threshold)
	}
	// 按单位步进后取所在周期的起点，回拨时第一步可能仍落在同一周期
	for k := 1; k <= 3; k++ {
		if next := p.periodStart(start.Add(time.Duration(k) * unit)); next.After(start) {
			return next
		}
	}
	return start.Add(unit)
}

// periodStart 返回 t 所在周期在策略时区下的起点，与 [Period.StartOf] 的构造方式一致
func (p *Period) periodStart(t time.Time) time.Time {
	t = t.In(p.loc)
	y, m, d := t.Date()
	switch p.gran {
	case Minute:
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, p.loc)
	case Hour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, p.loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, p.loc)
	}
}

// NewPath 渲染 now 对应的文件路径并记为活跃文件
//
// 只更新状态，不打开文件。
func (p *Period) NewPath(now time.Time) string {
	path := p.tmpl.Render(now.In(p.loc))
	p.setActive(path)
	return path
}

// NewSink 打开 now 对应的文件
//
// 自动创建缺失的父目录，以追加模式打开（不存在则创建，从不截断）。
// 只有打开成功后才更新活跃文件，打开失败时状态保持不变，下一次检查会再次触发轮转。
func (p *Period) NewSink(now time.Time) (Sink, error) {
	path := p.tmpl.Render(now.In(p.loc))
	if _, err := xfile.EnsureParent(path, 0); err != nil {
		return nil, fmt.Errorf("create directory for %q: %w", path, err)
	}
	f, err := xfile.OpenAppend(path, p.fileMode)
	if err != nil {
		return nil, err
	}
	p.setActive(path)
	return &fileSink{f: f, path: path, sync: p.sync}, nil
}

func (p *Period) setActive(path string) {
	p.mu.Lock()
	p.active = path
	p.mu.Unlock()
}

func (p *Period) reporter() func(error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onError != nil {
		return p.onError
	}
	return p.inherited
}

// claim 绑定到 Writer，已被绑定时返回 false
func (p *Period) claim() bool { return p.bound.CompareAndSwap(false, true) }

func (p *Period) unclaim() { p.bound.Store(false) }

// inheritOnError 设置未显式配置 OnError 时使用的回调
func (p *Period) inheritOnError(fn func(error)) {
	p.mu.Lock()
	p.inherited = fn
	p.mu.Unlock()
}
