package xrotate

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 可从配置文件加载的轮转配置
//
// 字段带 koanf 标签，可直接通过 xconf.Unmarshal 读取：
//
//	rotate:
//	  path: logs/app.log
//	  period: daily
//	  offset: "+08:00"
//	  buffer_size: 32768
type Config struct {
	// Path 基础文件路径（必需）
	Path string `koanf:"path"`

	// Period 轮转粒度："minute"、"hourly"、"daily"，默认 daily
	Period string `koanf:"period"`

	// Pattern 时间戳模板，为空时使用粒度默认模板
	Pattern string `koanf:"pattern"`

	// Offset 固定 UTC 偏移："Z"、"UTC"、"+08:00"、"-0530"、"+08"，
	// 也接受 Go duration（"8h"、"-5h30m"）。默认 UTC
	Offset string `koanf:"offset"`

	// Threshold 自定义轮转阈值（Go duration），为空时使用粒度单位
	Threshold string `koanf:"threshold"`

	// BufferSize 缓冲区字节数，0 表示不缓冲
	BufferSize int `koanf:"buffer_size"`

	// FileMode 新建文件权限（八进制字符串，如 "0644"），为空时使用 0644
	FileMode string `koanf:"file_mode"`

	// Sync Flush 时是否 fsync
	Sync bool `koanf:"sync"`
}

// Validate 校验配置
//
// 只校验字段格式，模板与路径的校验在 [Config.Checker] 构造时完成。
func (c *Config) Validate() error {
	_, err := c.periodOptions()
	return err
}

// Granularity 返回配置的轮转粒度
func (c *Config) Granularity() (Granularity, error) {
	if strings.TrimSpace(c.Period) == "" {
		return Day, nil
	}
	return ParseGranularity(c.Period)
}

// Checker 按配置构造策略
//
// BufferSize > 0 时外层包一层 [Buffered]。extra 追加在配置项之后，
// 可用于注入时钟、错误回调等无法写进配置文件的选项。
func (c *Config) Checker(extra ...PeriodOption) (Checker, error) {
	opts, err := c.periodOptions()
	if err != nil {
		return nil, err
	}
	g, _ := c.Granularity()

	p, err := NewPeriod(g, c.Path, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	if c.BufferSize == 0 {
		return p, nil
	}
	return NewBuffered(p, c.BufferSize)
}

func (c *Config) periodOptions() ([]PeriodOption, error) {
	if c.Path == "" {
		return nil, ErrEmptyFilename
	}
	if _, err := c.Granularity(); err != nil {
		return nil, err
	}
	if c.BufferSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, c.BufferSize)
	}

	opts := []PeriodOption{WithSync(c.Sync)}
	if c.Pattern != "" {
		opts = append(opts, WithPattern(c.Pattern))
	}

	offset, err := ParseOffset(c.Offset)
	if err != nil {
		return nil, err
	}
	if _, err := FixedOffset(offset); err != nil {
		return nil, err
	}
	opts = append(opts, WithOffset(offset))

	if c.Threshold != "" {
		d, err := time.ParseDuration(c.Threshold)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidThreshold, err)
		}
		opts = append(opts, WithThreshold(d))
	}

	if c.FileMode != "" {
		mode, err := ParseFileMode(c.FileMode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithFileMode(mode))
	}
	return opts, nil
}

// ParseOffset 解析 UTC 偏移
//
//	ParseOffset("")       // 0
//	ParseOffset("Z")      // 0
//	ParseOffset("+08:00") // 8h
//	ParseOffset("-0530")  // -5h30m
//	ParseOffset("+08")    // 8h
//	ParseOffset("8h")     // 8h
//	ParseOffset("-5h30m") // -5h30m
func ParseOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "Z", "UTC":
		return 0, nil
	}

	// 带单位的写法（"8h"、"-5h30m"、"+30m"）交给 time.ParseDuration，其余按 ±HH[:MM] 解析
	if (s[0] != '+' && s[0] != '-') || strings.ContainsAny(s[1:], "hms") {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
		}
		return d, nil
	}

	sign := time.Duration(1)
	if s[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	if len(digits) != 2 && len(digits) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
		}
	}

	h, _ := strconv.Atoi(digits[:2])
	m := 0
	if len(digits) == 4 {
		m, _ = strconv.Atoi(digits[2:])
	}
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	return sign * (time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// ParseFileMode 解析八进制权限字符串，如 "0644"、"644"、"0o640"
func ParseFileMode(s string) (os.FileMode, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0o"), "0O")
	v, err := strconv.ParseUint(raw, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFileMode, s)
	}
	mode := os.FileMode(v)
	if mode&^os.FileMode(0o777) != 0 {
		return 0, fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed", ErrInvalidFileMode, mode)
	}
	return mode, nil
}
