package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，与 slog.Level 兼容
type Level slog.Level

// 日志级别常量，与 slog 保持一致
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// String 返回级别名称，非标准级别形如 "INFO+2"
func (l Level) String() string {
	return slog.Level(l).String()
}

// MarshalText 实现 encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，配置文件中的 level 字段直接反序列化
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析日志级别（大小写不敏感，自动 TrimSpace）
//
// 除 debug/info/warn/warning/error 外，也接受 slog 的偏移写法，如 "info+2"、"ERROR-1"。
func ParseLevel(s string) (Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}

	var lv slog.Level
	if strings.ContainsAny(normalized, "+-") {
		if err := lv.UnmarshalText([]byte(normalized)); err == nil {
			return Level(lv), nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}
