// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，后续 Set 操作被跳过）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation(daily, xrotate.WithName("app")).
//		Build()
//
// [Builder.SetRotation] 把 xrotate 的按时间轮转 Writer 作为输出。
// Build 返回的 cleanup 释放 Token 并关闭 Writer，进程退出前必须调用一次；
// 重复调用是安全的。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// [ParseLevel] 也接受 "info+2" 这类偏移写法。Level 实现 encoding.TextMarshaler/TextUnmarshaler。
//
// # 动态级别
//
// [Builder.Build] 返回 [LoggerWithLevel]，SetLevel 对所有派生 Logger 立即生效，
// 适合配置热更新场景。
//
// # 错误处理
//
// 写日志失败不向调用方返回错误，计入内部计数并调用 [Builder.SetOnError] 的回调。
// 轮转相关的错误（打开新文件失败等）走 xrotate 自己的错误回调，避免写日志时递归。
package xlog
