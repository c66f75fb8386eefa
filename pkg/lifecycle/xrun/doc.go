// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// 任一服务返回错误或收到终止信号时，context 被取消，所有服务应监听 ctx.Done() 退出。
// 所有服务结束后，[Group.Finally] 注册的收尾函数按逆序执行，
// 用于在进程退出前释放 xrotate.Token 并关闭 Writer：
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("xrollctl"))
//	g.Finally("close", w.Close)
//	g.Finally("release", func() error { token.Release(); return nil })
//	g.Go("flush", xrun.FlushEvery(time.Second, w, nil))
//	err := g.Wait()
//
// [Run] 额外监听 [DefaultSignals]，收到信号时返回 *[SignalError]：
//
//	err := xrun.Run(ctx, []xrun.Option{xrun.WithFinalizer("release", release)}, watcher)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常退出
//	}
//
// # 退出原因
//
// Wait 把 context.Canceled 视为正常退出；通过 Cancel(cause) 或信号设置的原因会被返回。
// 收尾函数的错误与服务错误合并返回，收尾函数 panic 转为 [ErrFinalizerPanic]。
//
// # 服务函数
//
//   - [Ticker]: 周期执行
//   - [Timer]: 延迟执行一次
//   - [FlushEvery]: 周期刷新缓冲输出
package xrun
