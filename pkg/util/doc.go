// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件操作工具，路径校验、目录创建、追加打开
//
// 设计原则：
//   - 安全处理路径穿越
//   - 跨平台兼容
package util
