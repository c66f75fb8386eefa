// Package xrotate 提供按时间周期轮转的日志文件写入器。
//
// 每次写入前检查当前文件是否已超出轮转周期，超出时在同一把锁内刷新旧文件、
// 打开以当前时间命名的新文件并完成替换，轮转边界前后的字节不会丢失或交错。
//
// # 组成
//
//   - [Template]: 路径模板，将时间渲染为文件名，并能从文件名还原时间字段
//   - [Period]: 轮转策略（[NewMinute]、[NewHourly]、[NewDaily]、[NewPeriod]），
//     只记录当前活跃文件名，"当前文件何时打开"总是从文件名解析得到
//   - [Buffered]: 缓冲装饰器，为任意 [Checker] 产出的文件加一层内存缓冲
//   - [Writer]: 并发安全的写入器，检查、轮转、写入在一次加锁内完成
//   - [Token]: 显式的收尾句柄，Release 时刷新一次共享文件
//
// # 文件命名
//
// 基础路径 "logs/app.log" 配合模板 "[year]-[month]-[day]" 生成
// "logs/app-2023-03-23.log"。模板组件：[year]（4 位）、[month]、[day]、
// [hour]、[minute]（2 位，补零），字面量 "[" 写作 "[["。
// 各周期必须包含的字段在构造时校验，缺失直接返回错误。
//
// # 使用
//
//	daily, err := xrotate.NewDaily("logs/app.log", xrotate.WithOffset(8*time.Hour))
//	if err != nil {
//	    return err
//	}
//	buffered, err := xrotate.NewBuffered(daily, xrotate.DefaultBufferSize)
//	if err != nil {
//	    return err
//	}
//	w, token, err := xrotate.Build(buffered)
//	if err != nil {
//	    return err
//	}
//	defer token.Release()
//
// # 错误处理
//
// 只有写入当前文件失败会作为 Write 的返回值交给调用方。文件名解析失败、
// 新文件打开失败、收尾刷新失败都交给 OnError 回调（默认输出到 os.Stderr），
// 写入继续落在原文件上，下一次写入会重试轮转。
//
// 不做压缩，不做旧文件清理，不做跨进程协调。
package xrotate
