package xconf_test

import (
	"fmt"

	"github.com/omeyang/xrolling/pkg/config/xconf"
)

func ExampleNewFromBytes() {
	data := []byte(`
log:
  rotate:
    path: logs/app.log
    period: hourly
    buffer_size: 8192
`)
	cfg, err := xconf.NewFromBytes(data, xconf.FormatYAML, xconf.WithStrict())
	if err != nil {
		fmt.Println("加载失败:", err)
		return
	}

	var rotate struct {
		Path       string `koanf:"path"`
		Period     string `koanf:"period"`
		BufferSize int    `koanf:"buffer_size"`
	}
	if err := cfg.Unmarshal("log.rotate", &rotate); err != nil {
		fmt.Println("反序列化失败:", err)
		return
	}
	fmt.Println(rotate.Path, rotate.Period, rotate.BufferSize)
	// Output: logs/app.log hourly 8192
}
