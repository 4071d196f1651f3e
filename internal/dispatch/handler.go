package dispatch

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
)

// Handler adapts the Coordinator to the Lambda SQS integration. Failed items
// are reported through partial batch responses so the queue redelivers only
// those.
type Handler struct {
	coordinator *Coordinator
	logger      *slog.Logger
}

// NewHandler creates a Handler over the given coordinator.
func NewHandler(coordinator *Coordinator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{coordinator: coordinator, logger: logger}
}

// Handle processes one SQS event. The returned response names exactly the
// records whose pipeline failed; the error is always nil because a non-nil
// error would force redelivery of the whole batch, including items that
// already dispatched an email.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	items := make([]Item, 0, len(sqsEvent.Records))
	for _, record := range sqsEvent.Records {
		items = append(items, Item{ID: record.MessageId, Body: record.Body})
	}

	outcome := h.coordinator.ProcessBatch(ctx, items)

	response := events.SQSEventResponse{}
	for _, failure := range outcome.Failures {
		response.BatchItemFailures = append(response.BatchItemFailures,
			events.SQSBatchItemFailure{ItemIdentifier: failure.ID},
		)
	}

	if outcome.Failed() {
		h.logger.WarnContext(ctx, "batch completed with failures",
			"failed", len(outcome.Failures),
			"total", outcome.Total,
		)
	} else {
		h.logger.InfoContext(ctx, "batch completed",
			"total", outcome.Total,
		)
	}

	return response, nil
}
