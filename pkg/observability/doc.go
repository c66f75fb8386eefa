// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，可直接输出到轮转文件
//   - xrotate: 按时间轮转的日志文件写入器
//
// 设计原则：
//   - 写入路径不依赖后台 goroutine
//   - 轮转指标遵循 OpenTelemetry 语义规范
package observability
