package xfile

import "errors"

var (
	// ErrEmptyPath 表示必需的路径参数为空。
	ErrEmptyPath = errors.New("xfile: path is required")

	// ErrInvalidPath 表示路径格式无效（如目录路径、缺少文件名）。
	ErrInvalidPath = errors.New("xfile: invalid path")

	// ErrPathTraversal 表示检测到 ".." 路径段。
	ErrPathTraversal = errors.New("xfile: path traversal detected")

	// ErrNullByte 表示路径中包含空字节（\x00）。
	// Linux 内核会在空字节处截断路径，导致 Go 代码与操作系统看到的路径不一致。
	ErrNullByte = errors.New("xfile: path contains null byte")

	// ErrInvalidPerm 表示权限参数无效。
	ErrInvalidPerm = errors.New("xfile: invalid permission")

	// ErrNotDir 表示父路径上的某一段已存在且不是目录。
	ErrNotDir = errors.New("xfile: parent is not a directory")
)
