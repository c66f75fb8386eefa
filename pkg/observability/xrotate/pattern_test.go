package xrotate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 模板编译测试
// =============================================================================

func TestNewTemplate(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    string
	}{
		{name: "带扩展名", path: "logs/app.log", pattern: DailyPattern, want: "logs/app-[year]-[month]-[day].log"},
		{name: "无扩展名", path: "logs/app", pattern: "[year]", want: "logs/app-[year]"},
		{name: "紧凑模板", path: "app.log", pattern: "[year][month][day]", want: "app-[year][month][day].log"},
		{name: "多级扩展名只取最后一段", path: "app.tar.gz", pattern: "[year]", want: "app.tar-[year].gz"},
		{name: "字面量方括号", path: "app.log", pattern: "[[[year]", want: "app-[[[year].log"},
		{name: "组件名两侧空白", path: "app.log", pattern: "[ year ]", want: "app-[year].log"},
		{name: "右方括号是字面量", path: "app.log", pattern: "[year]]", want: "app-[year]].log"},
		{name: "隐藏文件不视为扩展名", path: "logs/.app", pattern: "[year]", want: "logs/.app-[year]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := NewTemplate(tt.path, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tmpl.String())
			assert.Equal(t, tt.path, tmpl.Path())
			assert.Equal(t, tt.pattern, tmpl.Pattern())
		})
	}
}

func TestNewTemplateErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		wantErr error
	}{
		{name: "空路径", path: "", pattern: DailyPattern, wantErr: ErrEmptyFilename},
		{name: "空模板", path: "app.log", pattern: "", wantErr: ErrInvalidPattern},
		{name: "未知组件", path: "app.log", pattern: "[yr]-[month]", wantErr: ErrInvalidPattern},
		{name: "未闭合", path: "app.log", pattern: "[year", wantErr: ErrInvalidPattern},
		{name: "空组件", path: "app.log", pattern: "[]", wantErr: ErrInvalidPattern},
		{name: "字段重复", path: "app.log", pattern: "[year]-[year]", wantErr: ErrDuplicateField},
		{name: "字段重复且不相邻", path: "app.log", pattern: "[day][month][day]", wantErr: ErrDuplicateField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTemplate(tt.path, tt.pattern)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTemplateCount(t *testing.T) {
	tmpl, err := NewTemplate("app.log", HourlyPattern)
	require.NoError(t, err)

	assert.Equal(t, 1, tmpl.Count(FieldYear))
	assert.Equal(t, 1, tmpl.Count(FieldMonth))
	assert.Equal(t, 1, tmpl.Count(FieldDay))
	assert.Equal(t, 1, tmpl.Count(FieldHour))
	assert.Equal(t, 0, tmpl.Count(FieldMinute))
	assert.Equal(t, 0, tmpl.Count(Field(0)))
	assert.Equal(t, 0, tmpl.Count(Field(99)))
}

func TestFieldString(t *testing.T) {
	assert.Equal(t, "year", FieldYear.String())
	assert.Equal(t, "minute", FieldMinute.String())
	assert.Equal(t, "Field(0)", Field(0).String())
	assert.Equal(t, "Field(9)", Field(9).String())
}

// =============================================================================
// 渲染测试
// =============================================================================

func TestTemplateRender(t *testing.T) {
	ts := utc(2023, time.March, 23, 4, 5, 6)

	tests := []struct {
		name    string
		path    string
		pattern string
		at      time.Time
		want    string
	}{
		{name: "按天", path: "logs/app.log", pattern: DailyPattern, at: ts, want: "logs/app-2023-03-23.log"},
		{name: "按小时", path: "logs/app.log", pattern: HourlyPattern, at: ts, want: "logs/app-2023-03-23-04.log"},
		{name: "按分钟", path: "logs/app.log", pattern: MinutePattern, at: ts, want: "logs/app-2023-03-23-04-05.log"},
		{name: "紧凑模板", path: "logs/app.log", pattern: "[year][month][day]", at: ts, want: "logs/app-20230323.log"},
		{name: "字段顺序自定义", path: "app.log", pattern: "[day].[month].[year]", at: ts, want: "app-23.03.2023.log"},
		{name: "年份补零", path: "app.log", pattern: "[year]", at: utc(7, time.January, 1, 0, 0, 0), want: "app-0007.log"},
		{name: "字面量方括号", path: "app.log", pattern: "[[[year]]", at: ts, want: "app-[2023].log"},
		{name: "路径带数字", path: "logs2/app9.log", pattern: "[year]", at: ts, want: "logs2/app9-2023.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := NewTemplate(tt.path, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tmpl.Render(tt.at))
		})
	}
}

func TestTemplateRenderUsesTimeZone(t *testing.T) {
	tmpl, err := NewTemplate("app.log", HourlyPattern)
	require.NoError(t, err)

	ts := utc(2023, time.March, 23, 20, 0, 0)
	east := time.FixedZone("+08:00", 8*3600)

	assert.Equal(t, "app-2023-03-23-20.log", tmpl.Render(ts))
	assert.Equal(t, "app-2023-03-24-04.log", tmpl.Render(ts.In(east)))
}

func TestTemplateRenderYearRange(t *testing.T) {
	tmpl, err := NewTemplate("app.log", DailyPattern)
	require.NoError(t, err)

	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{name: "超过 9999", ts: utc(10000, time.January, 1, 0, 0, 0), want: "app-9999-01-01.log"},
		{name: "公元前", ts: utc(-1, time.June, 2, 0, 0, 0), want: "app-0000-06-02.log"},
		{name: "边界内", ts: utc(9999, time.December, 31, 0, 0, 0), want: "app-9999-12-31.log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tmpl.Render(tt.ts)
			assert.Equal(t, tt.want, got)
			_, err := tmpl.Extract(got)
			assert.NoError(t, err, "渲染结果总能解析")
		})
	}
}

// =============================================================================
// 解析测试
// =============================================================================

func TestTemplateExtract(t *testing.T) {
	tmpl, err := NewTemplate("logs/app.log", MinutePattern)
	require.NoError(t, err)

	st, err := tmpl.Extract("logs/app-2023-03-23-04-05.log")
	require.NoError(t, err)
	assert.Equal(t, Stamp{Year: 2023, Month: 3, Day: 23, Hour: 4, Minute: 5}, st)
	assert.Equal(t, utc(2023, time.March, 23, 4, 5, 0), st.Time(time.UTC))
}

func TestTemplateExtractAbsentFields(t *testing.T) {
	tmpl, err := NewTemplate("app.log", "[year]")
	require.NoError(t, err)

	st, err := tmpl.Extract("app-2024.log")
	require.NoError(t, err)
	assert.Equal(t, Stamp{Year: 2024, Month: 1, Day: 1}, st)
}

func TestTemplateExtractErrors(t *testing.T) {
	tmpl, err := NewTemplate("logs/app.log", HourlyPattern)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
	}{
		{name: "空串", path: ""},
		{name: "长度不符", path: "logs/app-2023-03-23.log"},
		{name: "主名不符", path: "logs/abc-2023-03-23-04.log"},
		{name: "分隔符不符", path: "logs/app-2023_03_23_04.log"},
		{name: "扩展名不符", path: "logs/app-2023-03-23-04.txt"},
		{name: "字段非数字", path: "logs/app-2023-0x-23-04.log"},
		{name: "字段带符号", path: "logs/app-2023-+3-23-04.log"},
		{name: "月份越界", path: "logs/app-2023-13-23-04.log"},
		{name: "月份为零", path: "logs/app-2023-00-23-04.log"},
		{name: "日期为零", path: "logs/app-2023-03-00-04.log"},
		{name: "小时越界", path: "logs/app-2023-03-23-24.log"},
		{name: "二月三十日", path: "logs/app-2023-02-30-04.log"},
		{name: "平年二月二十九日", path: "logs/app-2023-02-29-04.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tmpl.Extract(tt.path)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestTemplateExtractLeapDay(t *testing.T) {
	tmpl, err := NewTemplate("app.log", DailyPattern)
	require.NoError(t, err)

	st, err := tmpl.Extract("app-2024-02-29.log")
	require.NoError(t, err)
	assert.Equal(t, 29, st.Day)
}

func TestTemplateFieldAt(t *testing.T) {
	tmpl, err := NewTemplate("logs/app.log", "[year][month][day][hour][minute]")
	require.NoError(t, err)

	path := "logs/app-202303230405.log"
	hour, err := tmpl.FieldAt(path, FieldHour)
	require.NoError(t, err)
	assert.Equal(t, 4, hour)

	minute, err := tmpl.FieldAt(path, FieldMinute)
	require.NoError(t, err)
	assert.Equal(t, 5, minute)

	year, err := tmpl.FieldAt(path, FieldYear)
	require.NoError(t, err)
	assert.Equal(t, 2023, year)
}

// FieldAt 只按偏移截取，不比对字面量
func TestTemplateFieldAtIgnoresLiterals(t *testing.T) {
	tmpl, err := NewTemplate("logs/app.log", HourlyPattern)
	require.NoError(t, err)

	hour, err := tmpl.FieldAt("xxxx/yyy_2023_03_23_17.zzz", FieldHour)
	require.NoError(t, err)
	assert.Equal(t, 17, hour)

	_, err = tmpl.Extract("xxxx/yyy_2023_03_23_17.zzz")
	assert.ErrorIs(t, err, ErrParse)
}

func TestTemplateFieldAtErrors(t *testing.T) {
	tmpl, err := NewTemplate("app.log", HourlyPattern)
	require.NoError(t, err)

	tests := []struct {
		name  string
		path  string
		field Field
	}{
		{name: "模板没有该字段", path: "app-2023-03-23-04.log", field: FieldMinute},
		{name: "长度不符", path: "app-2023-03-23-4.log", field: FieldHour},
		{name: "非数字", path: "app-2023-03-23-a4.log", field: FieldHour},
		{name: "越界", path: "app-2023-03-23-99.log", field: FieldHour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tmpl.FieldAt(tt.path, tt.field)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

// TestTemplateRoundTrip Extract(Render(t)) 等于 t 截断到模板字段
func TestTemplateRoundTrip(t *testing.T) {
	patterns := []string{
		MinutePattern,
		HourlyPattern,
		DailyPattern,
		"[year][month][day]",
		"[minute]_[hour]_[day]_[month]_[year]",
	}
	times := []time.Time{
		utc(2023, time.March, 23, 23, 59, 59),
		utc(2024, time.February, 29, 0, 0, 0),
		utc(1999, time.December, 31, 12, 30, 0),
		utc(1, time.January, 1, 0, 0, 0),
		utc(9999, time.December, 31, 23, 59, 0),
	}

	for _, pattern := range patterns {
		tmpl, err := NewTemplate("logs/app123.log", pattern)
		require.NoError(t, err)
		for _, ts := range times {
			st, err := tmpl.Extract(tmpl.Render(ts))
			require.NoError(t, err, "pattern %q at %s", pattern, ts)

			want := Stamp{Year: ts.Year(), Month: 1, Day: 1}
			if tmpl.Count(FieldMonth) > 0 {
				want.Month = int(ts.Month())
			}
			if tmpl.Count(FieldDay) > 0 {
				want.Day = ts.Day()
			}
			if tmpl.Count(FieldHour) > 0 {
				want.Hour = ts.Hour()
			}
			if tmpl.Count(FieldMinute) > 0 {
				want.Minute = ts.Minute()
			}
			assert.Equal(t, want, st, "pattern %q at %s", pattern, ts)
		}
	}
}

func TestStampTimeNilLocation(t *testing.T) {
	st := Stamp{Year: 2023, Month: 3, Day: 23}
	assert.Equal(t, utc(2023, time.March, 23, 0, 0, 0), st.Time(nil))
}

func TestExtractErrorMessage(t *testing.T) {
	tmpl, err := NewTemplate("app.log", DailyPattern)
	require.NoError(t, err)

	_, err = tmpl.Extract("app-2023-13-01.log")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "[month] 13 out of range")
}
