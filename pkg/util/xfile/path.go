package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// '/' 和 '\' 都视为分隔符，逐字符扫描，零内存分配。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 对日志文件路径进行格式检查和规范化
//
// 功能：
//   - 路径规范化（消除 . 和冗余斜杠）
//   - 阻止相对路径穿越（如 "../etc/passwd"）
//   - 拒绝空路径、空字节和显式目录路径（尾随 "/" 或 "\"）
//
// 绝对路径中的 ".." 会被 filepath.Clean 正常解析（"/var/log/../tmp/a.log" -> "/var/tmp/a.log"），
// 本函数不负责把路径限制在某个目录内。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}

	// 必须在 Clean 之前检查，Clean 会移除尾部斜杠
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// SplitExt 将文件路径拆分为不含扩展名的部分和扩展名（不含点）
//
// 只看最后一个路径段，以点开头的隐藏文件不视为扩展名：
//
//	SplitExt("logs/app.log")      // "logs/app", "log"
//	SplitExt("logs/app.tar.gz")   // "logs/app.tar", "gz"
//	SplitExt("logs/app")          // "logs/app", ""
//	SplitExt("logs/.hidden")      // "logs/.hidden", ""
//	SplitExt("logs.d/app")        // "logs.d/app", ""
func SplitExt(path string) (stem, ext string) {
	start := strings.LastIndexAny(path, "/"+string(filepath.Separator)) + 1
	base := path[start:]
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 || dot == len(base)-1 {
		return path, ""
	}
	return path[:start+dot], path[start+dot+1:]
}
