package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xrolling/pkg/config/xconf"
	"github.com/omeyang/xrolling/pkg/lifecycle/xrun"
	"github.com/omeyang/xrolling/pkg/observability/xlog"
	"github.com/omeyang/xrolling/pkg/observability/xrotate"
)

// policyFlags render 与 parse 共用的轮转策略参数
func policyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "period",
			Value: "daily",
			Usage: "轮转粒度：minute、hourly、daily",
		},
		&cli.StringFlag{
			Name:  "pattern",
			Usage: "时间戳模板，为空时使用粒度默认模板",
		},
		&cli.StringFlag{
			Name:  "offset",
			Usage: `固定 UTC 偏移，如 "+08:00"，默认 UTC`,
		},
	}
}

// periodFromFlags 按命令行参数构造策略，参数无效视为用法错误
func periodFromFlags(cmd *cli.Command, path string) (*xrotate.Period, error) {
	cfg := xrotate.Config{
		Path:    path,
		Period:  cmd.String("period"),
		Pattern: cmd.String("pattern"),
		Offset:  cmd.String("offset"),
	}
	checker, err := cfg.Checker()
	if err != nil {
		return nil, &usageError{err: err}
	}
	// BufferSize 为 0，Checker 一定是 *Period
	return checker.(*xrotate.Period), nil
}

// createRenderCommand 创建 render 子命令。
func createRenderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "计算某一时刻写入的日志文件名",
		ArgsUsage: "<path>",
		Flags: append(policyFlags(), &cli.StringFlag{
			Name:  "at",
			Usage: "RFC3339 时刻，默认当前时间",
		}),
		OnUsageError: onUsageError,
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return usagef("render 需要 1 个参数 <path>，实际 %d 个", cmd.Args().Len())
			}
			p, err := periodFromFlags(cmd, cmd.Args().First())
			if err != nil {
				return err
			}
			at := time.Now()
			if s := cmd.String("at"); s != "" {
				at, err = time.Parse(time.RFC3339, s)
				if err != nil {
					return usagef("--at: %w", err)
				}
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, p.Template().Render(at.In(p.Location())))
			return err
		},
	}
}

// createParseCommand 创建 parse 子命令。
func createParseCommand() *cli.Command {
	return &cli.Command{
		Name:         "parse",
		Usage:        "反推日志文件对应的周期起点与下次轮转时间",
		ArgsUsage:    "<path> <file>",
		Flags:        policyFlags(),
		OnUsageError: onUsageError,
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return usagef("parse 需要 2 个参数 <path> <file>，实际 %d 个", cmd.Args().Len())
			}
			p, err := periodFromFlags(cmd, cmd.Args().Get(0))
			if err != nil {
				return err
			}
			start, err := p.StartOf(cmd.Args().Get(1))
			if err != nil {
				return err
			}
			out := cmd.Root().Writer
			fmt.Fprintf(out, "start: %s\n", start.Format(time.RFC3339))
			_, err = fmt.Fprintf(out, "next:  %s\n", p.NextRotation(start).Format(time.RFC3339))
			return err
		},
	}
}

// runConfig run 命令的配置文件结构
//
//	log:
//	  level: info
//	  format: json
//	  name: app
//	  flush_interval: 1s
//	  breaker:
//	    failures: 3
//	    cooldown: 30s
//	  rotate:
//	    path: logs/app.log
//	    period: hourly
//	heartbeat:
//	  interval: 1s
type runConfig struct {
	Log struct {
		Level         xlog.Level     `koanf:"level"`
		Format        string         `koanf:"format"`
		Name          string         `koanf:"name"`
		FlushInterval time.Duration  `koanf:"flush_interval"`
		Rotate        xrotate.Config `koanf:"rotate"`
		Breaker       struct {
			Failures uint32        `koanf:"failures"`
			Cooldown time.Duration `koanf:"cooldown"`
		} `koanf:"breaker"`
	} `koanf:"log"`
	Heartbeat struct {
		Interval time.Duration `koanf:"interval"`
		Message  string        `koanf:"message"`
	} `koanf:"heartbeat"`
}

func (c *runConfig) applyDefaults() {
	if c.Log.FlushInterval == 0 {
		c.Log.FlushInterval = time.Second
	}
	if c.Heartbeat.Interval == 0 {
		c.Heartbeat.Interval = time.Second
	}
	if c.Heartbeat.Message == "" {
		c.Heartbeat.Message = "heartbeat"
	}
}

func (c *runConfig) validate() error {
	if c.Log.FlushInterval < 0 {
		return fmt.Errorf("log.flush_interval must be positive: %s", c.Log.FlushInterval)
	}
	if c.Heartbeat.Interval < 0 {
		return fmt.Errorf("heartbeat.interval must be positive: %s", c.Heartbeat.Interval)
	}
	return c.Log.Rotate.Validate()
}

func loadRunConfig(path string) (xconf.Config, *runConfig, error) {
	cfg, err := xconf.New(path)
	if err != nil {
		return nil, nil, err
	}
	rc := &runConfig{}
	if err := cfg.Unmarshal("", rc); err != nil {
		return nil, nil, err
	}
	rc.applyDefaults()
	if err := rc.validate(); err != nil {
		return nil, nil, err
	}
	return cfg, rc, nil
}

// createRunCommand 创建 run 子命令。
func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "按配置文件持续写心跳日志，验证轮转端到端行为",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "配置文件路径（yaml 或 json）",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "写满 N 条心跳后退出，0 表示一直运行",
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "运行指定时长后退出，0 表示一直运行",
			},
		},
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 0 {
				return usagef("run 不接受位置参数")
			}
			count := cmd.Int("count")
			if count < 0 {
				return usagef("--count 不能为负数: %d", count)
			}
			duration := cmd.Duration("duration")
			if duration < 0 {
				return usagef("--duration 不能为负数: %s", duration)
			}
			cfg, rc, err := loadRunConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			limits := runLimits{count: count, duration: duration}
			return cmdRun(ctx, cfg, rc, limits, cmd.Root().Writer, cmd.Root().ErrWriter)
		},
	}
}

// runLimits run 命令的退出条件，零值表示一直运行到收到信号
type runLimits struct {
	count    int
	duration time.Duration
}

func cmdRun(ctx context.Context, cfg xconf.Config, rc *runConfig, limits runLimits, stdout, stderr io.Writer) error {
	// 运行期诊断写 stderr，避免向已关闭的轮转文件写日志
	diag, _, err := xlog.New().SetOutput(stderr).SetLevel(xlog.LevelWarn).Build()
	if err != nil {
		return err
	}

	checker, err := rc.Log.Rotate.Checker()
	if err != nil {
		return err
	}
	wopts := []xrotate.WriterOption{
		xrotate.WithName(rc.Log.Name),
		xrotate.WithErrorHandler(func(err error) {
			diag.Error(context.Background(), "rotation error", xlog.Err(err))
		}),
	}
	if rc.Log.Breaker.Failures > 0 {
		wopts = append(wopts, xrotate.WithRotateBreaker(rc.Log.Breaker.Failures, rc.Log.Breaker.Cooldown))
	}

	builder := xlog.New().SetLevel(rc.Log.Level).SetFormat(rc.Log.Format)
	if rc.Log.Name != "" {
		builder.SetAttrs(xlog.Stream(rc.Log.Name))
	}
	logger, cleanup, err := builder.SetRotation(checker, wopts...).Build()
	if err != nil {
		return err
	}
	w := builder.Rotation()

	watcher, err := xconf.Watch(cfg, func(cfg xconf.Config, err error) {
		if err != nil {
			diag.Warn(context.Background(), "reload config failed", xlog.Err(err))
			return
		}
		level, err := xlog.ParseLevel(cfg.Client().String("log.level"))
		if err != nil {
			diag.Warn(context.Background(), "reload log level failed", xlog.Err(err))
			return
		}
		logger.SetLevel(level)
	})
	if err != nil {
		_ = cleanup()
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		beats    atomic.Int64
		lastFile string // 只在心跳服务中写，Run 返回后读
	)
	heartbeat := xrun.Ticker(rc.Heartbeat.Interval, true, func(ctx context.Context) error {
		// stop 之后 ticker 仍可能先于 ctx.Done 被选中
		if ctx.Err() != nil {
			return nil
		}
		n := beats.Add(1)
		lastFile = w.Path()
		logger.Info(ctx, rc.Heartbeat.Message, xlog.Count(n), xlog.File(lastFile))
		if limits.count > 0 && n >= int64(limits.count) {
			stop()
		}
		return nil
	})

	services := []xrun.Service{
		xrun.ServiceFunc(heartbeat),
		xrun.ServiceFunc(xrun.FlushEvery(rc.Log.FlushInterval, w, func(err error) {
			diag.Warn(context.Background(), "flush failed", xlog.Err(err))
		})),
		watcher,
	}
	if limits.duration > 0 {
		services = append(services, xrun.ServiceFunc(xrun.Timer(limits.duration, func(context.Context) error {
			stop()
			return nil
		})))
	}

	err = xrun.Run(runCtx, []xrun.Option{
		xrun.WithName("xrollctl"),
		xrun.WithLogger(diag),
		xrun.WithFinalizer("cleanup", cleanup),
	}, services...)
	if err != nil && !errors.Is(err, xrun.ErrSignal) {
		return err
	}
	_, err = fmt.Fprintf(stdout, "wrote %d heartbeats, last file %s\n", beats.Load(), lastFile)
	return err
}
