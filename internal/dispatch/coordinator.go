// Package dispatch drives the per-message notification pipeline: decode the
// request, fetch the authorized document, parse it, resolve the recipient,
// render the summary, assemble the raw email and send it. The coordinator
// processes batch items independently so one bad voucher never blocks its
// batch siblings.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sri-notifier/internal/external"
	"sri-notifier/internal/invoice"
	"sri-notifier/internal/mail"
	"sri-notifier/internal/metrics"
	"sri-notifier/internal/render"
	"sri-notifier/internal/types"
)

// DocumentStore fetches the signed document for an access key.
// *storage.DocumentStore satisfies this; tests substitute fakes.
type DocumentStore interface {
	Get(ctx context.Context, env types.Environment, accessKey string) ([]byte, error)
}

// Item is one unit of work in a batch: the transport-level identifier plus
// the raw JSON payload.
type Item struct {
	ID   string
	Body string
}

// ItemFailure pairs a failed item's identifier with the error that stopped
// its pipeline.
type ItemFailure struct {
	ID        string
	AccessKey string
	Err       error
}

// Outcome aggregates a batch run. The batch counts as failed when Failures
// is non-empty, regardless of how many items succeeded.
type Outcome struct {
	Total    int
	Failures []ItemFailure
}

// Failed reports whether any item in the batch failed.
func (o Outcome) Failed() bool {
	return len(o.Failures) > 0
}

// Coordinator wires the pipeline stages together.
type Coordinator struct {
	store     DocumentStore
	sender    external.MailSender
	assembler *mail.Assembler
	from      string
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// CoordinatorConfig holds the dependencies for creating a Coordinator.
type CoordinatorConfig struct {
	Store     DocumentStore
	Sender    external.MailSender
	Assembler *mail.Assembler
	// From is the verified sender address stamped on every outbound email.
	From    string
	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// NewCoordinator creates a Coordinator. Nil optional dependencies fall back
// to a default assembler, a noop recorder and the default logger.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	assembler := cfg.Assembler
	if assembler == nil {
		assembler = mail.NewAssembler()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:     cfg.Store,
		sender:    cfg.Sender,
		assembler: assembler,
		from:      cfg.From,
		metrics:   recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessBatch runs the pipeline for every item in order. Items fail
// independently: an error is recorded against its item and processing moves
// on, so the 0 < K < N partial-failure case still dispatches every healthy
// item.
func (c *Coordinator) ProcessBatch(ctx context.Context, items []Item) Outcome {
	outcome := Outcome{Total: len(items)}

	for _, item := range items {
		req := types.DecodeNotificationRequest(item.Body)
		logger := c.logger.With(
			"item_id", item.ID,
			"access_key", req.AccessKey,
			"environment", string(req.Environment),
			"trace_id", uuid.NewString(),
		)

		start := c.now()
		err := c.dispatch(ctx, req, logger)
		c.metrics.RecordDispatchLatency(ctx, c.now().Sub(start))

		if err != nil {
			c.metrics.RecordDispatch(ctx, metrics.ResultFailed)
			logger.ErrorContext(ctx, "notification dispatch failed",
				"error", err.Error(),
				"error_code", string(types.CodeOf(err)),
			)
			outcome.Failures = append(outcome.Failures, ItemFailure{
				ID:        item.ID,
				AccessKey: req.AccessKey,
				Err:       err,
			})
			continue
		}
		c.metrics.RecordDispatch(ctx, metrics.ResultSuccess)
	}

	c.metrics.RecordBatch(ctx, outcome.Total, len(outcome.Failures))
	return outcome
}

// dispatch runs the full pipeline for one request.
func (c *Coordinator) dispatch(ctx context.Context, req types.NotificationRequest, logger *slog.Logger) error {
	raw, err := c.store.Get(ctx, req.Environment, req.AccessKey)
	if err != nil {
		return err
	}

	doc, err := invoice.Parse(raw)
	if err != nil {
		return err
	}

	to, err := invoice.Recipient(doc)
	if err != nil {
		return err
	}

	summary := render.Compose(doc, raw, render.Meta{
		AccessKey:   req.AccessKey,
		Environment: req.Environment,
		GeneratedAt: c.now().UTC(),
	})
	pdfData, err := render.ToPDF(summary)
	if err != nil {
		return err
	}

	subject := req.Subject
	if subject == "" {
		subject = mail.DefaultSubject(req.Environment)
	}
	body := req.Body
	if body == "" {
		body = mail.DefaultBody(req.AccessKey)
	}

	rawMsg := c.assembler.Assemble(mail.Message{
		From:    c.from,
		To:      to,
		Subject: subject,
		Body:    body,
		Attachments: []mail.Attachment{
			{Filename: req.AccessKey + ".xml", ContentType: mail.ContentTypeXML, Data: raw},
			{Filename: req.AccessKey + ".pdf", ContentType: mail.ContentTypePDF, Data: pdfData},
		},
	})

	messageID, err := c.sender.SendRaw(ctx, rawMsg, req.AccessKey)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "notification dispatched",
		"recipient", to,
		"message_id", messageID,
		"pdf_bytes", len(pdfData),
		"document_bytes", len(raw),
	)
	return nil
}
