package xconf

// Options 定义配置加载选项。
type Options struct {
	// Delim 配置键分隔符，默认 "."。
	Delim string

	// Tag 结构体标签名，默认 "koanf"。
	Tag string

	// Strict 为 true 时，配置中出现目标结构体没有的键会导致 Unmarshal 失败。
	Strict bool
}

// Option 定义配置选项函数类型。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim: ".",
		Tag:   "koanf",
	}
}

// WithDelim 设置配置键分隔符，空值忽略。
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置结构体标签名，空值忽略。
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}

// WithStrict 拒绝未知配置键。
//
// 适合字段较少、拼写错误容易被忽视的配置段（如日志轮转的 period/pattern）。
func WithStrict() Option {
	return func(o *Options) {
		o.Strict = true
	}
}
