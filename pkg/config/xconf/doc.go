// Package xconf 提供配置加载、反序列化与热重载，基于 koanf 实现。
//
// xconf 定位为最小化配置加载器，不负责必选字段校验与默认值注入，
// 这些由配置结构体自己的 Validate 完成（如 xrotate.Config）。
//
// # 支持的格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 并发安全
//
// Reload 解析成功后原子替换 koanf 实例，失败时保留旧配置；并发 Reload 串行执行。
// Client 与 Unmarshal 读取当前快照，不加锁。
//
// # Unmarshal
//
// 默认允许弱类型转换，支持 time.Duration 字符串与实现 encoding.TextUnmarshaler 的字段
// （如 xlog.Level）。[WithStrict] 拒绝目标结构体中不存在的键。
//
// # 配置监视
//
// [Watch] 基于 fsnotify 监视配置文件所在目录，内置防抖，支持 vim/emacs 的原子写入。
// [Watcher.Run] 接受 context，可直接作为 xrun 的服务运行。
package xconf
