// Package metrics emits operational telemetry for the notifier to
// CloudWatch. Emission is best-effort: a metric failure is logged and never
// fails the pipeline stage that produced it.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Result labels the outcome dimension of a dispatch metric.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailed  Result = "failed"
)

// Metric and dimension names.
const (
	metricEmailDispatch        = "EmailDispatch"
	metricEmailDispatchLatency = "EmailDispatchLatency"
	metricStatusForwarded      = "StatusChangeForwarded"
	metricBatchItems           = "BatchItems"
	metricBatchItemsFailed     = "BatchItemsFailed"

	dimResult = "Result"
)

// Recorder is the telemetry surface used by the pipeline components.
type Recorder interface {
	// RecordDispatch counts one email dispatch outcome.
	RecordDispatch(ctx context.Context, result Result)
	// RecordDispatchLatency records how long one item took end to end.
	RecordDispatchLatency(ctx context.Context, d time.Duration)
	// RecordForwarded counts one status change forwarded downstream.
	RecordForwarded(ctx context.Context)
	// RecordBatch records the size and failure count of one batch.
	RecordBatch(ctx context.Context, total, failed int)
}

// CloudWatchClient abstracts the PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchRecorder implements Recorder against AWS CloudWatch.
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchRecorder creates a recorder publishing to the given namespace.
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchRecorder{client: client, namespace: namespace, logger: logger}
}

func (r *CloudWatchRecorder) RecordDispatch(ctx context.Context, result Result) {
	r.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(metricEmailDispatch),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(dimResult), Value: aws.String(string(result))},
		},
	})
}

func (r *CloudWatchRecorder) RecordDispatchLatency(ctx context.Context, d time.Duration) {
	r.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(metricEmailDispatchLatency),
		Value:      aws.Float64(float64(d.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
	})
}

func (r *CloudWatchRecorder) RecordForwarded(ctx context.Context) {
	r.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(metricStatusForwarded),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
	})
}

func (r *CloudWatchRecorder) RecordBatch(ctx context.Context, total, failed int) {
	r.put(ctx,
		cwtypes.MetricDatum{
			MetricName: aws.String(metricBatchItems),
			Value:      aws.Float64(float64(total)),
			Unit:       cwtypes.StandardUnitCount,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(metricBatchItemsFailed),
			Value:      aws.Float64(float64(failed)),
			Unit:       cwtypes.StandardUnitCount,
		},
	)
}

func (r *CloudWatchRecorder) put(ctx context.Context, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(r.namespace),
		MetricData: data,
	}
	if _, err := r.client.PutMetricData(ctx, input); err != nil {
		r.logger.Error("failed to put metric data",
			"namespace", r.namespace,
			"error", err.Error(),
		)
	}
}

// Noop is a Recorder that discards everything. Used when metrics are
// disabled and in tests.
type Noop struct{}

func (Noop) RecordDispatch(context.Context, Result)              {}
func (Noop) RecordDispatchLatency(context.Context, time.Duration) {}
func (Noop) RecordForwarded(context.Context)                     {}
func (Noop) RecordBatch(context.Context, int, int)               {}

// Compile-time assertions.
var (
	_ Recorder = (*CloudWatchRecorder)(nil)
	_ Recorder = Noop{}
)
