package waitlist

//go:generate mockgen -destination=mock_inserter_test.go -package=waitlist github.com/campuscabs/waitlist/pkg/store Inserter

import (
	"context"
	"errors"

	"github.com/campuscabs/waitlist/internal/log"
	"github.com/campuscabs/waitlist/internal/models"
	apperrors "github.com/campuscabs/waitlist/pkg/errors"
	"github.com/campuscabs/waitlist/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTable = "waitlist"

const (
	outcomeAccepted    = "accepted"
	outcomeInvalid     = "invalid"
	outcomeRejected    = "rejected"
	outcomeUnavailable = "unavailable"
)

const tracerName = "github.com/campuscabs/waitlist/domain/waitlist"

type submissionMetrics struct {
	submissions *prometheus.CounterVec
}

func newSubmissionMetrics(reg prometheus.Registerer) *submissionMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_submissions_total",
			Help: "Waitlist submissions by role and outcome.",
		},
		[]string{"role", "outcome"},
	)

	if err := reg.Register(counter); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				counter = existing
			}
		}
	}

	return &submissionMetrics{submissions: counter}
}

func (m *submissionMetrics) observe(role Role, outcome string) {
	m.submissions.WithLabelValues(string(role), outcome).Inc()
}

// Recorder sends validated submissions to the store and accounts for the outcome.
type Recorder struct {
	logger   *log.Logger
	store    store.Inserter
	table    string
	receipts ReceiptRepository
	metrics  *submissionMetrics
	tracer   trace.Tracer
}

func NewRecorder(logger *log.Logger, inserter store.Inserter, table string, receipts ReceiptRepository, reg prometheus.Registerer) *Recorder {
	if table == "" {
		table = DefaultTable
	}

	return &Recorder{
		logger:   logger,
		store:    inserter,
		table:    table,
		receipts: receipts,
		metrics:  newSubmissionMetrics(reg),
		tracer:   otel.Tracer(tracerName),
	}
}

func (r *Recorder) invalid(role Role) {
	r.metrics.observe(role, outcomeInvalid)
}

// insert writes exactly one record. Store failures come back as AppErrors
// carrying the message shown to the submitter.
func (r *Recorder) insert(ctx context.Context, submission *WaitlistSubmission) error {
	logger := log.GetLoggerInstanceFromContext(ctx, r.logger)

	ctx, span := r.tracer.Start(ctx, "waitlist.insert", trace.WithAttributes(
		attribute.String("waitlist.role", string(submission.Role())),
		attribute.String("waitlist.variant", string(submission.Variant())),
		attribute.String("waitlist.table", r.table),
	))
	defer span.End()

	if err := r.store.Insert(ctx, r.table, submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")

		logger.Error("Waitlist insert failed",
			"role", submission.Role(),
			"variant", submission.Variant(),
			"error", err,
		)

		if store.IsRejected(err) {
			r.metrics.observe(submission.Role(), outcomeRejected)
			return apperrors.NewBadGatewayError(MessageSubmitFailed, err)
		}

		r.metrics.observe(submission.Role(), outcomeUnavailable)
		return apperrors.NewUnavailableError(MessageSubmitFailed, err)
	}

	r.metrics.observe(submission.Role(), outcomeAccepted)
	logger.Info("Waitlist submission accepted", "role", submission.Role(), "variant", submission.Variant())

	r.writeReceipt(ctx, submission, logger)
	return nil
}

func (r *Recorder) writeReceipt(ctx context.Context, submission *WaitlistSubmission, logger *log.Logger) {
	if r.receipts == nil {
		return
	}

	receipt := &models.WaitlistReceipt{
		Role:    string(submission.Role()),
		Variant: string(submission.Variant()),
	}

	// The hosted store already has the record; a missing receipt only skews stats.
	if err := r.receipts.CreateReceipt(ctx, receipt); err != nil {
		logger.Warn("Failed to record waitlist receipt", "role", submission.Role(), "error", err)
	}
}
