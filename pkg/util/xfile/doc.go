// Package xfile 提供日志文件落盘相关的文件系统工具。
//
// 本包服务于轮转写入器：在打开新的日志文件前，先规范化路径、补齐父目录，
// 再以追加方式打开文件。所有函数都不做删除操作。
//
// # 函数一览
//
//   - [SanitizePath]: 规范化路径并拒绝相对路径穿越、空字节、目录路径
//   - [SplitExt]: 将文件路径拆成 "目录/主名" 与扩展名两部分
//   - [EnsureParent]: 补齐父目录，父路径被普通文件占用时返回 [ErrNotDir]
//   - [OpenAppend]: 以 O_APPEND|O_CREATE|O_WRONLY 打开文件，从不截断
//
// # 路径穿越检测
//
// 只有 ".." 作为独立路径段时才视为穿越，"app..2024.log" 这类文件名不受影响：
//
//	SanitizePath("logs/app..2024.log") // ✓ "logs/app..2024.log"
//	SanitizePath("../etc/passwd")      // ✗ ErrPathTraversal
//
// # 错误处理
//
// 预定义错误变量支持 [errors.Is] 判断：
//
//	_, err := xfile.SanitizePath("")
//	if errors.Is(err, xfile.ErrEmptyPath) {
//	    // 处理空路径
//	}
package xfile
