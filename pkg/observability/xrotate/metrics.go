package xrotate

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称常量
const (
	// metricNameRotations 轮转次数计数器，outcome 属性区分结果
	metricNameRotations = "xrotate.rotations"
	// metricNameRotateDuration 轮转耗时直方图（刷新旧文件 + 打开新文件）
	metricNameRotateDuration = "xrotate.rotate.duration"
	// metricNameWriteBytes 写入字节数计数器
	metricNameWriteBytes = "xrotate.write.bytes"
	// metricNameWriteErrors 写入失败计数器
	metricNameWriteErrors = "xrotate.write.errors"
)

// 轮转结果
const (
	outcomeOK         = "ok"
	outcomeError      = "error"
	outcomeSuppressed = "suppressed"
)

// defaultStreamName 未设置 WithName 时的 stream 属性
const defaultStreamName = "default"

// writerMetrics Writer 指标
//
// 记录发生在持锁区间内，不阻塞也不返回错误。
type writerMetrics struct {
	rotations      metric.Int64Counter
	rotateDuration metric.Float64Histogram
	writeBytes     metric.Int64Counter
	writeErrors    metric.Int64Counter

	stream attribute.KeyValue
	attrs  metric.MeasurementOption
}

func newWriterMetrics(mp metric.MeterProvider, stream string) (*writerMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if stream == "" {
		stream = defaultStreamName
	}

	meter := mp.Meter("xrotate", metric.WithInstrumentationVersion("1.0.0"))

	rotations, err := meter.Int64Counter(
		metricNameRotations,
		metric.WithDescription("日志文件轮转次数"),
		metric.WithUnit("{rotation}"),
	)
	if err != nil {
		return nil, err
	}

	rotateDuration, err := meter.Float64Histogram(
		metricNameRotateDuration,
		metric.WithDescription("日志文件轮转耗时"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0),
	)
	if err != nil {
		return nil, err
	}

	writeBytes, err := meter.Int64Counter(
		metricNameWriteBytes,
		metric.WithDescription("写入日志文件的字节数"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	writeErrors, err := meter.Int64Counter(
		metricNameWriteErrors,
		metric.WithDescription("写入日志文件失败次数"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	kv := attribute.String("stream", stream)
	return &writerMetrics{
		rotations:      rotations,
		rotateDuration: rotateDuration,
		writeBytes:     writeBytes,
		writeErrors:    writeErrors,
		stream:         kv,
		attrs:          metric.WithAttributes(kv),
	}, nil
}

func (m *writerMetrics) recordRotate(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(m.stream, attribute.String("outcome", outcome))
	m.rotations.Add(ctx, 1, attrs)
	if outcome != outcomeSuppressed {
		m.rotateDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

func (m *writerMetrics) recordWrite(n int, err error) {
	if m == nil {
		return
	}
	ctx := context.Background()
	if n > 0 {
		m.writeBytes.Add(ctx, int64(n), m.attrs)
	}
	if err != nil {
		m.writeErrors.Add(ctx, 1, m.attrs)
	}
}
