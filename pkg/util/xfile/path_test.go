package xfile

import (
	"errors"
	"path/filepath"
	"testing"
)

// =============================================================================
// SanitizePath 单元测试
// =============================================================================

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "绝对路径", input: "/var/log/app.log", want: "/var/log/app.log"},
		{name: "相对路径", input: "logs/app.log", want: "logs/app.log"},
		{name: "简单文件名", input: "app.log", want: "app.log"},
		{name: "文件名包含双点", input: "app..2024.log", want: "app..2024.log"},
		{name: "带单点的路径", input: "/var/./log/./app.log", want: "/var/log/app.log"},
		{name: "重复斜杠", input: "/var//log///app.log", want: "/var/log/app.log"},
		{name: "绝对路径内的双点被解析", input: "/var/log/../tmp/app.log", want: "/var/tmp/app.log"},
		{name: "空路径", input: "", wantErr: ErrEmptyPath},
		{name: "空字节", input: "logs/\x00app.log", wantErr: ErrNullByte},
		{name: "尾部斜杠", input: "/var/log/", wantErr: ErrInvalidPath},
		{name: "尾部反斜杠", input: "logs\\", wantErr: ErrInvalidPath},
		{name: "相对路径穿越", input: "../etc/passwd", wantErr: ErrPathTraversal},
		{name: "中间穿越", input: "logs/../../etc/passwd", wantErr: ErrPathTraversal},
		{name: "仅有点", input: ".", wantErr: ErrInvalidPath},
		{name: "根目录", input: "/", wantErr: ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SanitizePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizePath(%q) 意外错误: %v", tt.input, err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("SanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHasDotDotSegment(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"..", true},
		{"a/../b", true},
		{"a\\..\\b", true},
		{"..config", false},
		{"a/...b", false},
		{"app..log", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := hasDotDotSegment(tt.path); got != tt.want {
			t.Errorf("hasDotDotSegment(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// =============================================================================
// SplitExt 单元测试
// =============================================================================

func TestSplitExt(t *testing.T) {
	tests := []struct {
		path     string
		wantStem string
		wantExt  string
	}{
		{"logs/app.log", "logs/app", "log"},
		{"app.log", "app", "log"},
		{"logs/app.tar.gz", "logs/app.tar", "gz"},
		{"logs/app", "logs/app", ""},
		{"logs/.hidden", "logs/.hidden", ""},
		{"logs.d/app", "logs.d/app", ""},
		{"logs/app.", "logs/app.", ""},
		{"/var/log/all.txt", "/var/log/all", "txt"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			stem, ext := SplitExt(tt.path)
			if stem != tt.wantStem || ext != tt.wantExt {
				t.Errorf("SplitExt(%q) = (%q, %q), want (%q, %q)",
					tt.path, stem, ext, tt.wantStem, tt.wantExt)
			}
		})
	}
}
