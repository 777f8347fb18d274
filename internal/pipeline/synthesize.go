package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"voicereel/internal/credentials"
	"voicereel/internal/journal"
	"voicereel/internal/logging"
	"voicereel/internal/services"
	"voicereel/internal/services/elevenlabs"
	"voicereel/internal/textseg"
)

// exhaustionHints are logged when a chunk runs out of credentials.
var exhaustionHints = []string{
	"check that the voice id exists and is available to these accounts",
	"lower stability or similarity boost if the provider rejects the settings",
	"add a new API key or upgrade an account to raise the quota",
}

// synthesizeChunk tries eligible credentials in configured order until one
// returns audio. Each credential is called at most once for the chunk.
func (p *Pipeline) synthesizeChunk(ctx context.Context, st *runState, chunk textseg.Chunk) (credentials.Credential, []byte, error) {
	logger := logging.WithContext(ctx, p.logger)
	req := st.rc.request(chunk.Text)
	tried := make(map[int]bool)
	var (
		lastErr   error
		lastLabel string
	)

	for {
		cred, ok := st.pool.Select(chunk.Chars, tried)
		if !ok {
			return credentials.Credential{}, nil, p.exhausted(ctx, st, chunk, lastLabel, lastErr)
		}
		tried[cred.ID] = true
		credCtx := services.WithCredential(ctx, cred.Label)

		logger.Debug("synthesis attempt",
			logging.String(logging.FieldCredential, cred.Label),
			logging.Int("chars", chunk.Chars),
			logging.String("remaining", humanize.Comma(int64(cred.Remaining))),
		)
		audio, err := p.synth.Synthesize(credCtx, cred.Key, req)
		if err == nil {
			if cerr := st.pool.Consume(cred.ID, chunk.Chars); cerr != nil {
				logger.Debug("quota bookkeeping", logging.Error(cerr))
			}
			p.recordAttempt(ctx, st, chunk, cred.Label, journal.OutcomeSuccess, 0, "")
			return cred, audio, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return credentials.Credential{}, nil, &ChunkError{Chunk: chunk.Index + 1, Credential: cred.Label, Err: ctxErr}
		}
		failure, ok := elevenlabs.AsFailure(err)
		if !ok {
			// Client-side rejection; no credential can succeed.
			p.recordAttempt(ctx, st, chunk, cred.Label, journal.OutcomeProvider, 0, err.Error())
			return credentials.Credential{}, nil, &ChunkError{Chunk: chunk.Index + 1, Credential: cred.Label, Err: err}
		}

		p.recordAttempt(ctx, st, chunk, cred.Label, outcomeFor(failure.Kind), failure.StatusCode, failure.Message)
		attrs := []logging.Attr{
			logging.String(logging.FieldCredential, cred.Label),
			logging.String("failure", string(failure.Kind)),
			logging.Int("status_code", failure.StatusCode),
			logging.String("provider_message", failure.Message),
			logging.String(logging.FieldErrorHint, failure.Hint()),
		}
		if failure.Kind == elevenlabs.FailureAuth {
			st.pool.Block(cred.ID)
			logging.WarnWithContext(logger, "credential rejected by provider", "credential_rejected",
				append(attrs, logging.String(logging.FieldImpact, "credential excluded for the rest of the run"))...)
		} else {
			logging.WarnWithContext(logger, "synthesis failed; trying next credential", "synthesis_failover",
				append(attrs, logging.String(logging.FieldImpact, "credential skipped for this chunk"))...)
		}
		lastErr = err
		lastLabel = cred.Label
	}
}

func (p *Pipeline) exhausted(ctx context.Context, st *runState, chunk textseg.Chunk, lastLabel string, lastErr error) error {
	logger := logging.WithContext(ctx, p.logger)
	msg := fmt.Sprintf("no credential has %s characters of quota left for chunk %d", humanize.Comma(int64(chunk.Chars)), chunk.Index+1)
	if lastErr != nil {
		msg = fmt.Sprintf("every eligible credential failed for chunk %d", chunk.Index+1)
	}
	for _, hint := range exhaustionHints {
		logger.Info("remediation", logging.String(logging.FieldErrorHint, hint))
	}
	logger.Debug("credential pool at exhaustion",
		logging.Int("chars_required", chunk.Chars),
		logging.String("total_remaining", humanize.Comma(int64(st.pool.TotalRemaining()))),
	)
	err := services.Wrap(services.ErrNoEligibleCredential, "synthesis", "select credential", msg, lastErr)
	return &ChunkError{Chunk: chunk.Index + 1, Credential: lastLabel, Err: err}
}

func (p *Pipeline) recordAttempt(ctx context.Context, st *runState, chunk textseg.Chunk, label string, outcome journal.Outcome, status int, message string) {
	st.rec.write(ctx, "record attempt", func(ctx context.Context, s *journal.Store) error {
		return s.RecordAttempt(ctx, st.runID, journal.Attempt{
			Chunk:      chunk.Index + 1,
			Credential: label,
			Outcome:    outcome,
			StatusCode: status,
			Message:    message,
		})
	})
}

func outcomeFor(kind elevenlabs.FailureKind) journal.Outcome {
	switch kind {
	case elevenlabs.FailureAuth:
		return journal.OutcomeAuth
	case elevenlabs.FailureTimeout:
		return journal.OutcomeTimeout
	case elevenlabs.FailureTransport:
		return journal.OutcomeTransport
	default:
		return journal.OutcomeProvider
	}
}

// IsExhausted reports whether err ended a run because a chunk had no
// eligible credential left.
func IsExhausted(err error) bool {
	return errors.Is(err, services.ErrNoEligibleCredential)
}
