package pipeline

import (
	"context"
	"log/slog"

	"voicereel/internal/journal"
	"voicereel/internal/logging"
)

// recorder forwards run facts to the journal. Journal failures are logged
// and never fail the run.
type recorder struct {
	store  *journal.Store
	runID  string
	logger *slog.Logger
}

func (r *recorder) write(ctx context.Context, op string, fn func(context.Context, *journal.Store) error) {
	if r == nil || r.store == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx), r.store); err != nil {
		logging.WarnWithContext(r.logger, "run journal write failed", "journal_write_failed",
			logging.String("operation", op),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the run continues; voicereel report may be incomplete"),
			logging.String(logging.FieldImpact, "journal missing entries for this run"),
		)
	}
}

func (r *recorder) path() string {
	if r == nil || r.store == nil {
		return ""
	}
	return r.store.Path()
}

func (r *recorder) close() {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Debug("close run journal", logging.Error(err))
	}
}
