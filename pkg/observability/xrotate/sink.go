package xrotate

import (
	"errors"
	"os"
)

// fileSink 直接写文件的 Sink
type fileSink struct {
	f    *os.File
	path string
	sync bool
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

// Flush 文件没有用户态缓冲，只在开启 sync 时落盘
func (s *fileSink) Flush() error {
	if !s.sync {
		return nil
	}
	return s.f.Sync()
}

func (s *fileSink) Close() error {
	var syncErr error
	if s.sync {
		syncErr = s.f.Sync()
	}
	return errors.Join(syncErr, s.f.Close())
}

// Path 返回文件路径
func (s *fileSink) Path() string { return s.path }

// pather 能报告自身文件路径的 Sink
type pather interface {
	Path() string
}

// SinkPath 返回 Sink 对应的文件路径，无法获知时返回空串
func SinkPath(s Sink) string {
	if p, ok := s.(pather); ok {
		return p.Path()
	}
	return ""
}
