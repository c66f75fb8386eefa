package xfile

import (
	"fmt"
	"os"
)

// DefaultFilePerm 新建日志文件的默认权限
const DefaultFilePerm = 0644

// appendFlags 追加写入、不存在则创建、从不截断
const appendFlags = os.O_WRONLY | os.O_APPEND | os.O_CREATE

// OpenAppend 以追加模式打开文件，不存在时按 perm 创建
//
// 同一周期内进程多次重启会打开同一路径，已有内容必须保留，因此从不使用 O_TRUNC。
// perm 只允许权限位（0000~0777），且只影响新建的文件（仍受 umask 约束）。
func OpenAppend(filename string, perm os.FileMode) (*os.File, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return nil, fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	if perm&^os.FileMode(0o777) != 0 {
		return nil, fmt.Errorf("file permission %04o has non-permission bits: %w", perm, ErrInvalidPerm)
	}
	//#nosec G304 -- 路径由调用方经 SanitizePath 规范化
	return os.OpenFile(filename, appendFlags, perm)
}
