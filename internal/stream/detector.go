// Package stream watches the voucher table's change stream and hands
// authorization transitions off to the notification queue. Detection is
// all-or-nothing per batch: any publish failure fails the whole invocation
// so the stream redelivers the batch, which is safe because forwarding is
// idempotent downstream.
package stream

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/sync/errgroup"

	"sri-notifier/internal/metrics"
	"sri-notifier/internal/queue"
	"sri-notifier/internal/types"
)

// maxConcurrentRecords bounds parallel record processing per invocation.
const maxConcurrentRecords = 4

// statusAttr and accessKeyAttr name the stream image attributes read by the
// detector.
const (
	statusAttr    = "status"
	accessKeyAttr = "accessKey"
)

// Detector inspects change-stream records and forwards the ones that
// represent a voucher reaching AUTHORIZED.
type Detector struct {
	publisher queue.Publisher
	// override, when set, replaces environment inference from the source
	// table name.
	override    types.Environment
	overrideSet bool
	metrics     metrics.Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// DetectorConfig holds the dependencies for creating a Detector.
type DetectorConfig struct {
	Publisher queue.Publisher
	// SourceEnvironment optionally pins the environment stamped on forwarded
	// messages. Empty means infer from the stream's table name.
	SourceEnvironment string
	Metrics           metrics.Recorder
	Logger            *slog.Logger
}

// NewDetector creates a Detector.
func NewDetector(cfg DetectorConfig) *Detector {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		publisher:   cfg.Publisher,
		override:    types.ParseEnvironment(cfg.SourceEnvironment),
		overrideSet: cfg.SourceEnvironment != "",
		metrics:     recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleEvent processes one stream event. Records run concurrently under a
// small limit; the first publish error cancels the siblings and fails the
// invocation, so the stream redelivers the whole batch.
func (d *Detector) HandleEvent(ctx context.Context, event events.DynamoDBEvent) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRecords)

	for _, record := range event.Records {
		record := record
		g.Go(func() error {
			return d.processRecord(ctx, record)
		})
	}

	return g.Wait()
}

// processRecord forwards the record's status change when it crosses the
// authorization boundary, and silently skips everything else.
func (d *Detector) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "MODIFY" {
		return nil
	}

	oldImage := record.Change.OldImage
	newImage := record.Change.NewImage
	if oldImage == nil || newImage == nil {
		d.logger.WarnContext(ctx, "modify record missing image, skipping",
			"event_id", record.EventID,
		)
		return nil
	}

	before := types.Snapshot{
		Status:    stringAttr(oldImage, statusAttr),
		AccessKey: stringAttr(oldImage, accessKeyAttr),
	}
	after := types.Snapshot{
		Status:    stringAttr(newImage, statusAttr),
		AccessKey: stringAttr(newImage, accessKeyAttr),
	}

	if !shouldForward(before, after) {
		return nil
	}

	env := d.environmentFor(record.EventSourceArn)
	msg := types.StatusChange{
		EventType:   types.EventTypeStatusChange,
		Status:      after.Status,
		AccessKey:   after.AccessKey,
		Environment: env,
		Timestamp:   d.now().UTC().Format(time.RFC3339),
	}

	if err := d.publisher.PublishStatusChange(ctx, msg); err != nil {
		return err
	}
	d.metrics.RecordForwarded(ctx)

	d.logger.InfoContext(ctx, "authorization transition forwarded",
		"access_key", after.AccessKey,
		"previous_status", before.Status,
		"environment", string(env),
	)
	return nil
}

// stringAttr reads a string attribute from a stream image, tolerating a
// missing attribute or a non-string type.
func stringAttr(image map[string]events.DynamoDBAttributeValue, name string) string {
	attr, ok := image[name]
	if !ok || attr.DataType() != events.DataTypeString {
		return ""
	}
	return attr.String()
}

// shouldForward reports whether the status change is the authorization
// transition: a pending voucher (RECEIVED or PROCESSING) becoming
// AUTHORIZED. Re-writes of an already authorized voucher never forward.
func shouldForward(before, after types.Snapshot) bool {
	if after.Status != types.StatusAuthorized || after.AccessKey == "" {
		return false
	}
	return before.Status == types.StatusReceived || before.Status == types.StatusProcessing
}

// environmentFor resolves the environment stamped on forwarded messages:
// the configured override when present, otherwise inferred from the source
// table's name.
func (d *Detector) environmentFor(streamARN string) types.Environment {
	if d.overrideSet {
		return d.override
	}
	table := tableNameFromStreamARN(streamARN)
	if strings.Contains(strings.ToLower(table), "test") {
		return types.EnvTest
	}
	return types.EnvProduction
}

// tableNameFromStreamARN extracts the table name from a stream ARN of the
// form arn:aws:dynamodb:region:account:table/{name}/stream/{label}.
func tableNameFromStreamARN(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/stream")
	return name
}
