package xlog

import (
	"fmt"
	"log/slog"
	"time"
)

// 常用属性 Key
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"

	// KeyStream 日志流名称，与 xrotate 指标的 stream 属性一致
	KeyStream = "stream"
	// KeyFile 当前写入的日志文件
	KeyFile = "file"
	// KeyPeriod 轮转粒度（minute/hourly/daily）
	KeyPeriod = "period"
)

// Err 创建错误属性，err 为 nil 时返回空属性（slog 会忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性，输出人类可读格式（如 "1m30s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Stream 创建日志流属性
func Stream(name string) slog.Attr {
	return slog.String(KeyStream, name)
}

// File 创建文件路径属性
func File(path string) slog.Attr {
	return slog.String(KeyFile, path)
}

// Period 创建轮转粒度属性（如 xrotate.Granularity）
func Period(p fmt.Stringer) slog.Attr {
	if p == nil {
		return slog.Attr{}
	}
	return slog.String(KeyPeriod, p.String())
}
