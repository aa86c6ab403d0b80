// Package ingest runs the inbound-email pipeline: poll the inbox, resolve the
// sender to a known vendor, match the reply to an RFP, and persist an
// extracted proposal at most once per (rfp, vendor) pair.
package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/procupilot/procupilot/internal/mail"
	"github.com/procupilot/procupilot/internal/store"
)

// Source yields inbound messages received since a point in time.
type Source interface {
	Fetch(since time.Time) ([]mail.Message, error)
}

// Store is the persistence surface the pipeline needs.
type Store interface {
	VendorByEmail(ctx context.Context, email string) (*store.Vendor, error)
	RFPByTitleLike(ctx context.Context, fragment string) (*store.RFP, error)
	ListRFPs(ctx context.Context) ([]store.RFP, error)
	ProposalExists(ctx context.Context, rfpID, vendorID string) (bool, error)
	CreateProposal(ctx context.Context, proposal *store.Proposal) error
}

type extractor interface {
	ExtractProposal(ctx context.Context, text string) store.ParsedProposal
}

// Clock exists so tests can pin the midnight cutoff.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

const defaultInterval = time.Minute

// Worker polls the inbox on an interval and feeds each message through the
// pipeline. Cycles never overlap: a poll that fires while the previous one is
// still running is skipped.
type Worker struct {
	source    Source
	store     Store
	extractor extractor
	interval  time.Duration
	clock     Clock
	logger    *zap.Logger
	busy      atomic.Bool
}

func NewWorker(source Source, st Store, ex extractor, interval time.Duration, log *zap.Logger) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{
		source:    source,
		store:     st,
		extractor: ex,
		interval:  interval,
		clock:     systemClock{},
		logger:    log,
	}
}

// Run executes one cycle immediately, then one per interval until the context
// is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("ingestion worker started", zap.Duration("interval", w.interval))

	w.Cycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ingestion worker stopped")
			return
		case <-ticker.C:
			w.Cycle(ctx)
		}
	}
}

// Cycle fetches everything received since local midnight and processes each
// message. Messages are independent: one bad email never blocks the rest of
// the batch.
func (w *Worker) Cycle(ctx context.Context) {
	if !w.busy.CompareAndSwap(false, true) {
		w.logger.Debug("previous cycle still running, skipping")
		return
	}
	defer w.busy.Store(false)

	now := w.clock.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	messages, err := w.source.Fetch(since)
	if err != nil {
		w.logger.Error("inbox fetch failed", zap.Error(err))
		return
	}

	w.logger.Info("processing inbox batch", zap.Int("messages", len(messages)))

	for i := range messages {
		if ctx.Err() != nil {
			return
		}
		if err := w.processMessage(ctx, &messages[i]); err != nil {
			w.logger.Error("message processing failed",
				zap.String("from", messages[i].From),
				zap.String("subject", messages[i].Subject),
				zap.Error(err),
			)
		}
	}
}

func (w *Worker) processMessage(ctx context.Context, msg *mail.Message) error {
	vendor, err := w.store.VendorByEmail(ctx, msg.From)
	if err != nil {
		return err
	}
	if vendor == nil {
		w.logger.Info("skipping email from unknown sender", zap.String("from", msg.From))
		return nil
	}

	rfp, err := w.matchRFP(ctx, msg.Subject, msg.Text)
	if err != nil {
		return err
	}

	// Dedup guard runs before extraction so a duplicate never costs a model
	// call.
	if rfp != nil {
		exists, err := w.store.ProposalExists(ctx, rfp.ID, vendor.ID)
		if err != nil {
			return err
		}
		if exists {
			w.logger.Info("proposal already recorded, skipping",
				zap.String("rfp_id", rfp.ID),
				zap.String("vendor_id", vendor.ID),
			)
			return nil
		}
	}

	parsed := w.extractor.ExtractProposal(ctx, msg.Text)

	proposal := &store.Proposal{
		VendorID:   &vendor.ID,
		RawEmail:   msg.Text,
		Parsed:     parsed,
		ReceivedAt: msg.Date,
	}
	if rfp != nil {
		proposal.RFPID = &rfp.ID
	}
	if proposal.ReceivedAt.IsZero() {
		proposal.ReceivedAt = w.clock.Now()
	}

	if err := w.store.CreateProposal(ctx, proposal); err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("proposal_id", proposal.ID),
		zap.String("vendor_id", vendor.ID),
		zap.Bool("extraction_failed", parsed.Failed()),
	}
	if rfp != nil {
		fields = append(fields, zap.String("rfp_id", rfp.ID))
	}
	w.logger.Info("proposal recorded", fields...)

	return nil
}
