package xrotate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/xrolling/pkg/util/xfile"
)

// Field 时间戳模板中的字段
type Field uint8

// 模板支持的字段
const (
	FieldYear Field = iota + 1
	FieldMonth
	FieldDay
	FieldHour
	FieldMinute
)

// fieldSlots 按 Field 下标存放的数组长度
const fieldSlots = int(FieldMinute) + 1

var fieldNames = [fieldSlots]string{
	FieldYear:   "year",
	FieldMonth:  "month",
	FieldDay:    "day",
	FieldHour:   "hour",
	FieldMinute: "minute",
}

// String 返回模板组件名（不含方括号）
func (f Field) String() string {
	if f == 0 || int(f) >= fieldSlots {
		return "Field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

// width 字段渲染后的固定宽度
func (f Field) width() int {
	if f == FieldYear {
		return 4
	}
	return 2
}

// inRange 检查字段取值范围（day 与月份的组合在 Extract 中另行校验）
func (f Field) inRange(v int) bool {
	switch f {
	case FieldYear:
		return v >= 0 && v <= 9999
	case FieldMonth:
		return v >= 1 && v <= 12
	case FieldDay:
		return v >= 1 && v <= 31
	case FieldHour:
		return v >= 0 && v <= 23
	case FieldMinute:
		return v >= 0 && v <= 59
	default:
		return false
	}
}

func (f Field) valueOf(t time.Time) int {
	switch f {
	case FieldYear:
		return min(max(t.Year(), 0), 9999)
	case FieldMonth:
		return int(t.Month())
	case FieldDay:
		return t.Day()
	case FieldHour:
		return t.Hour()
	case FieldMinute:
		return t.Minute()
	default:
		return 0
	}
}

func lookupField(name string) (Field, bool) {
	for f := FieldYear; f <= FieldMinute; f++ {
		if fieldNames[f] == name {
			return f, true
		}
	}
	return 0, false
}

// Stamp 从文件名还原出的时间字段
//
// 模板中不存在的字段取零值：Month/Day 为 1，Hour/Minute 为 0。
type Stamp struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
}

// Time 在指定时区下组装时间
func (s Stamp) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(s.Year, time.Month(s.Month), s.Day, s.Hour, s.Minute, 0, 0, loc)
}

func (s *Stamp) set(f Field, v int) {
	switch f {
	case FieldYear:
		s.Year = v
	case FieldMonth:
		s.Month = v
	case FieldDay:
		s.Day = v
	case FieldHour:
		s.Hour = v
	case FieldMinute:
		s.Minute = v
	}
}

// token 模板片段：field 为 0 时是字面量
type token struct {
	field Field
	lit   string
}

func (tk token) width() int {
	if tk.field == 0 {
		return len(tk.lit)
	}
	return tk.field.width()
}

// Template 编译后的路径模板
//
// 由三段组成：基础路径去掉扩展名后加 "-"、时间戳模板、".扩展名"。
// 所有字段都是定宽数字，因此每个字段在文件名中的字节偏移在编译时即可确定。
// 编译后不可变，可并发使用。
type Template struct {
	path    string
	pattern string
	tokens  []token
	offsets [fieldSlots]int
	width   int
}

// NewTemplate 将基础路径与时间戳模板编译为路径模板
//
//	tmpl, _ := NewTemplate("logs/app.log", "[year]-[month]-[day]")
//	tmpl.Render(t) // "logs/app-2023-03-23.log"
//
// 模板中每个字段最多出现一次。基础路径按原样使用，不做规范化。
func NewTemplate(path, pattern string) (*Template, error) {
	if path == "" {
		return nil, ErrEmptyFilename
	}
	body, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	stem, ext := xfile.SplitExt(path)
	tokens := appendLiteral(nil, stem+"-")
	for _, tk := range body {
		if tk.field == 0 {
			tokens = appendLiteral(tokens, tk.lit)
			continue
		}
		tokens = append(tokens, tk)
	}
	if ext != "" {
		tokens = appendLiteral(tokens, "."+ext)
	}

	t := &Template{path: path, pattern: pattern, tokens: tokens}
	for i := range t.offsets {
		t.offsets[i] = -1
	}
	for _, tk := range tokens {
		if tk.field != 0 {
			if t.offsets[tk.field] >= 0 {
				return nil, fmt.Errorf("%w: [%s] appears more than once in %q", ErrDuplicateField, tk.field, pattern)
			}
			t.offsets[tk.field] = t.width
		}
		t.width += tk.width()
	}
	return t, nil
}

// compilePattern 解析时间戳模板
func compilePattern(pattern string) ([]token, error) {
	var (
		tokens []token
		lit    strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{lit: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); {
		c := pattern[i]
		if c != '[' {
			lit.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(pattern) && pattern[i+1] == '[' {
			lit.WriteByte('[')
			i += 2
			continue
		}
		end := strings.IndexByte(pattern[i+1:], ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: unclosed '[' at offset %d in %q", ErrInvalidPattern, i, pattern)
		}
		name := pattern[i+1 : i+1+end]
		f, ok := lookupField(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%w: unknown component [%s] in %q", ErrInvalidPattern, name, pattern)
		}
		flush()
		tokens = append(tokens, token{field: f})
		i += end + 2
	}
	flush()

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	return tokens, nil
}

func appendLiteral(tokens []token, lit string) []token {
	if lit == "" {
		return tokens
	}
	if n := len(tokens); n > 0 && tokens[n-1].field == 0 {
		tokens[n-1].lit += lit
		return tokens
	}
	return append(tokens, token{lit: lit})
}

// Path 返回基础路径
func (t *Template) Path() string { return t.path }

// Pattern 返回时间戳模板原文
func (t *Template) Pattern() string { return t.pattern }

// Count 返回字段在模板中出现的次数（0 或 1）
func (t *Template) Count(f Field) int {
	if f == 0 || int(f) >= fieldSlots || t.offsets[f] < 0 {
		return 0
	}
	return 1
}

// String 返回完整路径模板，如 "logs/app-[year]-[month]-[day].log"
func (t *Template) String() string {
	var b strings.Builder
	for _, tk := range t.tokens {
		if tk.field == 0 {
			b.WriteString(strings.ReplaceAll(tk.lit, "[", "[["))
			continue
		}
		b.WriteByte('[')
		b.WriteString(tk.field.String())
		b.WriteByte(']')
	}
	return b.String()
}

// Render 渲染指定时间对应的文件路径
//
// 时间按 t 自身的时区取字段，调用方负责先转换到策略时区。
// [year] 固定 4 位，超出 0000~9999 的年份被钳到边界，保证结果总能被 [Template.Extract] 解析。
func (t *Template) Render(ts time.Time) string {
	var b strings.Builder
	b.Grow(t.width)
	for _, tk := range t.tokens {
		if tk.field == 0 {
			b.WriteString(tk.lit)
			continue
		}
		writePadded(&b, tk.field.valueOf(ts), tk.field.width())
	}
	return b.String()
}

func writePadded(b *strings.Builder, v, width int) {
	s := strconv.Itoa(v)
	for i := len(s); i < width; i++ {
		b.WriteByte('0')
	}
	b.WriteString(s)
}

// Extract 将具体文件路径解析回时间字段
//
// 逐段比对：字面量必须完全一致，字段必须是定宽十进制数字且在合法范围内。
func (t *Template) Extract(path string) (Stamp, error) {
	if len(path) != t.width {
		return Stamp{}, fmt.Errorf("%w: %q has length %d, template %q expects %d",
			ErrParse, path, len(path), t.String(), t.width)
	}

	st := Stamp{Month: 1, Day: 1}
	pos := 0
	for _, tk := range t.tokens {
		w := tk.width()
		seg := path[pos : pos+w]
		if tk.field == 0 {
			if seg != tk.lit {
				return Stamp{}, fmt.Errorf("%w: %q does not match %q at offset %d", ErrParse, path, tk.lit, pos)
			}
		} else {
			v, err := parseField(tk.field, seg)
			if err != nil {
				return Stamp{}, fmt.Errorf("%w: %q: %w", ErrParse, path, err)
			}
			st.set(tk.field, v)
		}
		pos += w
	}

	if st.Day > daysIn(st.Year, st.Month) {
		return Stamp{}, fmt.Errorf("%w: %q: day %d out of range for %04d-%02d", ErrParse, path, st.Day, st.Year, st.Month)
	}
	return st, nil
}

// FieldAt 按固定偏移读取单个字段
//
// 与 Extract 相互独立：只校验总长度，然后直接截取该字段的定宽数字段解析，
// 不比对字面量。用于在日期部分之外单独还原小时、分钟。
func (t *Template) FieldAt(path string, f Field) (int, error) {
	if t.Count(f) == 0 {
		return 0, fmt.Errorf("%w: template %q has no [%s] field", ErrParse, t.String(), f)
	}
	if len(path) != t.width {
		return 0, fmt.Errorf("%w: %q has length %d, template %q expects %d",
			ErrParse, path, len(path), t.String(), t.width)
	}
	off := t.offsets[f]
	v, err := parseField(f, path[off:off+f.width()])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrParse, path, err)
	}
	return v, nil
}

// parseField 解析定宽十进制数字段
//
// 不用 strconv.Atoi：它接受 "+1"、"-1" 这类带符号的输入。
func parseField(f Field, seg string) (int, error) {
	v := 0
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("[%s] %q is not a number", f, seg)
		}
		v = v*10 + int(c-'0')
	}
	if !f.inRange(v) {
		return 0, fmt.Errorf("[%s] %d out of range", f, v)
	}
	return v, nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
