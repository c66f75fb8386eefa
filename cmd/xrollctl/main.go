// xrollctl 是按时间轮转日志的命令行工具。
//
// 用法:
//
//	xrollctl <命令> [命令参数]
//
// 命令:
//
//	render <path>           计算某一时刻写入的日志文件名
//	parse <path> <file>     反推日志文件对应的周期起点与下次轮转时间
//	run -c <config>         按配置文件持续写心跳日志，验证轮转端到端行为（--count/--duration 限定退出条件）
//	help                    显示帮助信息
//
// 退出码:
//
//	0: 成功（run 命令: 收到 SIGINT/SIGTERM 正常退出）
//	1: 执行失败
//	2: 参数错误
//
// 示例:
//
//	xrollctl render --period hourly --offset +08:00 --at 2023-03-23T23:59:59Z logs/app.log
//	xrollctl parse --period daily logs/app.log logs/app-2023-03-23.log
//	xrollctl run -c /etc/xrollctl/config.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags "-X main.Version=..." 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// usageError 参数错误，退出码 2。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// onUsageError 把 flag 解析错误统一映射为 usageError
func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{err: err}
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xrollctl",
		Usage:     "按时间轮转日志的命令行工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			createRenderCommand(),
			createParseCommand(),
			createRunCommand(),
		},
		OnUsageError: onUsageError,
		// 由 run 统一映射退出码，不让 urfave/cli 调用 os.Exit
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := createApp(stdout, stderr).Run(ctx, args); err != nil {
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "参数错误: %v\n", ue)
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
