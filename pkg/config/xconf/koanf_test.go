package xconf

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const rotateYAML = `
log:
  level: debug
  rotate:
    path: logs/app.log
    period: hourly
    offset: "+08:00"
    buffer_size: "4096"
    flush_every: 2s
`

type rotateSection struct {
	Path       string        `koanf:"path"`
	Period     string        `koanf:"period"`
	Offset     string        `koanf:"offset"`
	BufferSize int           `koanf:"buffer_size"`
	FlushEvery time.Duration `koanf:"flush_every"`
}

type textLevel string

func (l *textLevel) UnmarshalText(b []byte) error {
	*l = textLevel("level:" + string(b))
	return nil
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	path := writeConfig(t, "app.yaml", rotateYAML)

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, FormatYAML, cfg.Format())
	assert.Equal(t, "hourly", cfg.Client().String("log.rotate.period"))

	var rs rotateSection
	require.NoError(t, cfg.Unmarshal("log.rotate", &rs))
	assert.Equal(t, rotateSection{
		Path:       "logs/app.log",
		Period:     "hourly",
		Offset:     "+08:00",
		BufferSize: 4096,
		FlushEvery: 2 * time.Second,
	}, rs)
}

func TestNewErrors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New("config.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = New(writeConfig(t, "bad.json", "{not json"))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestNewEmptyFile(t *testing.T) {
	cfg, err := New(writeConfig(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Empty(t, cfg.Client().Keys())
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(`{"log":{"rotate":{"path":"a.log"}}}`), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())
	assert.Equal(t, "a.log", cfg.Client().String("log.rotate.path"))
	assert.ErrorIs(t, cfg.Reload(), ErrReloadUnsupported)

	_, err = NewFromBytes(nil, Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	empty, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	var rs rotateSection
	require.NoError(t, empty.Unmarshal("", &rs))
	assert.Zero(t, rs)
}

func TestOptions(t *testing.T) {
	cfg, err := NewFromBytes([]byte("log:\n  rotate:\n    file: x.log\n"), FormatYAML,
		WithDelim("/"), WithTag("conf"), nil)
	require.NoError(t, err)
	assert.Equal(t, "x.log", cfg.Client().String("log/rotate/file"))

	var target struct {
		Path string `conf:"file"`
	}
	require.NoError(t, cfg.Unmarshal("log/rotate", &target))
	assert.Equal(t, "x.log", target.Path)

	// 空值不覆盖默认
	o := applyOptions([]Option{WithDelim(""), WithTag("")})
	assert.Equal(t, ".", o.Delim)
	assert.Equal(t, "koanf", o.Tag)
}

func TestUnmarshalStrict(t *testing.T) {
	data := []byte("rotate:\n  path: a.log\n  perod: daily\n")

	loose, err := NewFromBytes(data, FormatYAML)
	require.NoError(t, err)
	var rs rotateSection
	require.NoError(t, loose.Unmarshal("rotate", &rs))
	assert.Equal(t, "a.log", rs.Path)

	strict, err := NewFromBytes(data, FormatYAML, WithStrict())
	require.NoError(t, err)
	err = strict.Unmarshal("rotate", &rs)
	assert.ErrorIs(t, err, ErrUnmarshalFailed)
	assert.Contains(t, err.Error(), "perod")
}

func TestUnmarshalTextUnmarshaler(t *testing.T) {
	cfg, err := NewFromBytes([]byte("level: warn\n"), FormatYAML)
	require.NoError(t, err)

	var target struct {
		Level textLevel `koanf:"level"`
	}
	require.NoError(t, cfg.Unmarshal("", &target))
	assert.Equal(t, textLevel("level:warn"), target.Level)
}

func TestMustUnmarshal(t *testing.T) {
	cfg, err := NewFromBytes([]byte("n: abc\n"), FormatYAML)
	require.NoError(t, err)

	var target struct {
		N int `koanf:"n"`
	}
	assert.Panics(t, func() { MustUnmarshal(cfg, "", &target) })

	var ok struct {
		N string `koanf:"n"`
	}
	assert.NotPanics(t, func() { MustUnmarshal(cfg, "", &ok) })
	assert.Equal(t, "abc", ok.N)
}

func TestReload(t *testing.T) {
	path := writeConfig(t, "app.yaml", "period: daily\n")
	cfg, err := New(path)
	require.NoError(t, err)

	old := cfg.Client()
	require.NoError(t, os.WriteFile(path, []byte("period: hourly\n"), 0o600))
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "hourly", cfg.Client().String("period"))
	assert.Equal(t, "daily", old.String("period"), "旧快照保持不变")

	// 解析失败保留旧配置
	require.NoError(t, os.WriteFile(path, []byte("period: [unclosed\n"), 0o600))
	assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, "hourly", cfg.Client().String("period"))

	require.NoError(t, os.Remove(path))
	assert.ErrorIs(t, cfg.Reload(), ErrLoadFailed)
	assert.Equal(t, "hourly", cfg.Client().String("period"))
}

func TestReloadConcurrent(t *testing.T) {
	path := writeConfig(t, "app.json", `{"n": 1}`)
	cfg, err := New(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				assert.NoError(t, cfg.Reload())
				assert.Equal(t, 1, cfg.Client().Int("n"))
			}
		}()
	}
	wg.Wait()
}
