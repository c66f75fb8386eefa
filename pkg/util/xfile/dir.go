package xfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultDirPerm 新建日志目录的默认权限（所有者 rwx，组 r-x，其他无权限）
const DefaultDirPerm os.FileMode = 0o750

// EnsureParent 为即将打开的日志文件准备父目录，返回父目录路径。
//
// perm 为 0 时使用 [DefaultDirPerm]，否则必须包含所有者执行位。
// 已存在的目录保持原权限；父路径上某一段是普通文件时返回 [ErrNotDir]，
// 而不是 MkdirAll 的底层 ENOTDIR。文件位于当前目录时返回 "." 且不做任何操作。
func EnsureParent(filename string, perm os.FileMode) (string, error) {
	switch {
	case filename == "":
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	case containsNullByte(filename):
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	if perm == 0 {
		perm = DefaultDirPerm
	}
	if perm&^fs.ModePerm != 0 || perm&0o100 == 0 {
		return "", fmt.Errorf("directory permission %04o needs owner execute and no extra bits: %w", perm, ErrInvalidPerm)
	}

	dir := filepath.Dir(filename)
	if dir == "." {
		return dir, nil
	}
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return "", fmt.Errorf("%q: %w", dir, ErrNotDir)
		}
		return dir, nil
	}

	if err := os.MkdirAll(dir, perm); err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) && isNotDir(pe.Path) {
			return "", fmt.Errorf("%q: %w", pe.Path, ErrNotDir)
		}
		return "", err
	}
	return dir, nil
}

// isNotDir 判断 MkdirAll 失败的那一段是否是已存在的非目录
func isNotDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
