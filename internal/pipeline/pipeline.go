package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"voicereel/internal/assembly"
	"voicereel/internal/bundle"
	"voicereel/internal/credentials"
	"voicereel/internal/fileutil"
	"voicereel/internal/journal"
	"voicereel/internal/logging"
	"voicereel/internal/services"
	"voicereel/internal/services/elevenlabs"
	"voicereel/internal/subtitles"
	"voicereel/internal/textseg"
)

// Synthesizer turns text into encoded audio with one API key.
type Synthesizer interface {
	Synthesize(ctx context.Context, apiKey string, req elevenlabs.Request) ([]byte, error)
}

// Deps bundles the collaborators a Pipeline needs.
type Deps struct {
	Synthesizer  Synthesizer
	Quota        credentials.QuotaChecker
	Prober       assembly.Prober
	Concatenator assembly.Concatenator
	Logger       *slog.Logger
	Progress     Progress
	// NewRunID defaults to uuid.NewString.
	NewRunID func() string
}

// Pipeline runs narration jobs. A Pipeline holds no per-run state and may be
// reused for sequential runs.
type Pipeline struct {
	synth     Synthesizer
	quota     credentials.QuotaChecker
	assembler *assembly.Assembler
	logger    *slog.Logger
	progress  Progress
	newRunID  func() string
}

// New validates deps and constructs a Pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Synthesizer == nil || deps.Quota == nil || deps.Prober == nil || deps.Concatenator == nil {
		return nil, errors.New("pipeline requires synthesizer, quota checker, prober, and concatenator")
	}
	p := &Pipeline{
		synth:     deps.Synthesizer,
		quota:     deps.Quota,
		assembler: assembly.NewAssembler(deps.Prober, deps.Concatenator),
		logger:    logging.NewComponentLogger(deps.Logger, "pipeline"),
		progress:  deps.Progress,
		newRunID:  deps.NewRunID,
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	return p, nil
}

type runState struct {
	rc        RunConfig
	runID     string
	ws        *assembly.Workspace
	pool      *credentials.Pool
	rec       *recorder
	chunks    []textseg.Chunk
	units     [][]textseg.SubUnit
	results   []ChunkResult
	failChunk int
	result    *Result
}

// Run executes one run. On failure the returned error carries a services
// marker, and a *ChunkError when a specific chunk was being processed.
func (p *Pipeline) Run(ctx context.Context, rc RunConfig) (result *Result, err error) {
	p.emit(Event{State: StateValidating})
	if err := rc.Validate(); err != nil {
		p.emit(Event{State: StateFailed, Err: err})
		return nil, err
	}

	st := &runState{rc: rc, runID: p.newRunID()}
	ctx = services.WithRunID(ctx, st.runID)
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()

	ws, err := assembly.OpenWorkspace(rc.WorkDir, rc.ClipPrefix)
	if err != nil {
		p.emit(Event{State: StateFailed, Err: err})
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logger.Debug("release workspace lock", logging.Error(cerr))
		}
	}()
	st.ws = ws
	if purged := ws.Purged(); len(purged) > 0 {
		logger.Info("removed previous run artifacts", logging.Int("files", len(purged)), logging.String("work_dir", ws.Dir()))
	}

	st.rec = &recorder{runID: st.runID, logger: logger}
	if store, jerr := journal.Open(ws.Dir()); jerr != nil {
		logging.WarnWithContext(logger, "run journal unavailable", "journal_open_failed",
			logging.Error(jerr),
			logging.String(logging.FieldErrorHint, "check that the working directory is writable"),
			logging.String(logging.FieldImpact, "voicereel report will not cover this run"),
		)
	} else {
		st.rec.store = store
	}
	defer st.rec.close()
	st.rec.write(ctx, "begin run", func(ctx context.Context, s *journal.Store) error {
		return s.BeginRun(ctx, journal.Run{ID: st.runID, VoiceID: rc.VoiceID, ModelID: rc.ModelID, StartedAt: started})
	})

	defer func() {
		if err != nil {
			p.fail(ctx, logger, st, err)
		}
	}()

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("voice_id", rc.VoiceID),
		logging.String("model_id", rc.ModelID),
		logging.Int("credentials", len(rc.Keys())),
		logging.String("work_dir", ws.Dir()),
	)

	p.checkCredentials(ctx, st)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.segment(ctx, st); err != nil {
		return nil, err
	}
	if err := p.synthesizeAll(ctx, st); err != nil {
		return nil, err
	}
	if err := p.assemble(ctx, st); err != nil {
		return nil, err
	}
	if err := p.buildSubtitles(ctx, st); err != nil {
		return nil, err
	}
	if err := p.finishOutputs(ctx, st); err != nil {
		return nil, err
	}

	st.result.Credentials = st.pool.Snapshot()
	st.result.JournalPath = st.rec.path()
	st.rec.write(ctx, "finish run", func(ctx context.Context, s *journal.Store) error {
		return s.FinishRun(ctx, st.runID, journal.RunSucceeded, 0, "", "")
	})
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("chunks", len(st.results)),
		logging.Float64("audio_seconds", st.result.Duration),
		logging.String("combined", st.result.Track.Path),
		logging.String("subtitles", st.result.SubtitlePath),
		logging.Duration("elapsed", time.Since(started)),
	)
	p.emit(Event{State: StateDone, Chunks: len(st.chunks), Completed: len(st.results)})
	return st.result, nil
}

func (p *Pipeline) checkCredentials(ctx context.Context, st *runState) {
	p.emit(Event{State: StateCheckingCredentials})
	ctx = services.WithStage(ctx, string(StateCheckingCredentials))
	logger := logging.WithContext(ctx, p.logger)

	st.pool = credentials.NewPool(st.rc.Keys())
	for _, res := range st.pool.Refresh(ctx, p.quota) {
		cred := res.Credential
		record := journal.CredentialRecord{Position: cred.ID + 1, Label: cred.Label}
		if res.Err != nil {
			record.Error = res.Err.Error()
			logging.WarnWithContext(logger, "credential quota unavailable", "quota_check_failed",
				logging.String(logging.FieldCredential, cred.Label),
				logging.Error(res.Err),
				logging.String(logging.FieldErrorHint, "verify the key and network access to the provider"),
				logging.String(logging.FieldImpact, "credential skipped for this run"),
			)
		} else {
			remaining := cred.Remaining
			record.Remaining = &remaining
			logger.Info("credential quota",
				logging.String(logging.FieldCredential, cred.Label),
				logging.String("remaining", humanize.Comma(int64(cred.Remaining))),
			)
		}
		st.rec.write(ctx, "record credential", func(ctx context.Context, s *journal.Store) error {
			return s.RecordCredential(ctx, st.runID, record)
		})
	}
	logger.Info("credential check complete",
		logging.Int("credentials", st.pool.Len()),
		logging.String("total_remaining", humanize.Comma(int64(st.pool.TotalRemaining()))),
	)
}

func (p *Pipeline) segment(ctx context.Context, st *runState) error {
	p.emit(Event{State: StateSegmenting})
	logger := logging.WithContext(services.WithStage(ctx, string(StateSegmenting)), p.logger)

	chunks, err := textseg.SplitIntoChunks(st.rc.Text, st.rc.MaxChunkChars)
	if err != nil {
		return services.Wrap(services.ErrValidation, "segment", "split chunks", "", err)
	}
	if len(chunks) == 0 {
		return services.Wrap(services.ErrValidation, "segment", "split chunks", "input text produced no chunks", nil)
	}
	units := make([][]textseg.SubUnit, len(chunks))
	total := 0
	for i, chunk := range chunks {
		if units[i], err = textseg.SplitIntoSubUnits(chunk.Text, st.rc.SubtitleUnitSize, st.rc.SubtitleMode); err != nil {
			return services.Wrap(services.ErrValidation, "segment", "split sub-units", "", err)
		}
		total += chunk.Chars
		if chunk.Chars > st.rc.MaxChunkChars {
			logging.WarnWithContext(logger, "sentence exceeds chunk limit", "oversized_chunk",
				logging.Int(logging.FieldChunk, chunk.Index+1),
				logging.Int("chars", chunk.Chars),
				logging.Int("limit", st.rc.MaxChunkChars),
				logging.String(logging.FieldErrorHint, "add sentence punctuation or raise segmentation.max_chunk_chars"),
				logging.String(logging.FieldImpact, "chunk sent whole; it needs a credential with enough quota"),
			)
		}
	}
	st.chunks = chunks
	st.units = units
	st.rec.write(ctx, "record segmentation", func(ctx context.Context, s *journal.Store) error {
		return s.SetSegmentation(ctx, st.runID, total, len(chunks))
	})
	logger.Info("text segmented",
		logging.Int("chunks", len(chunks)),
		logging.String("characters", humanize.Comma(int64(total))),
		logging.String("subtitle_mode", st.rc.SubtitleMode.String()),
	)
	return nil
}

func (p *Pipeline) synthesizeAll(ctx context.Context, st *runState) error {
	for _, chunk := range st.chunks {
		if err := ctx.Err(); err != nil {
			st.failChunk = chunk.Index + 1
			return &ChunkError{Chunk: chunk.Index + 1, Err: err}
		}
		p.emit(Event{State: StateSynthesizing, Chunk: chunk.Index + 1, Chunks: len(st.chunks), Completed: len(st.results)})

		chunkCtx := services.WithStage(services.WithChunkIndex(ctx, chunk.Index), string(StateSynthesizing))
		cred, audio, err := p.synthesizeChunk(chunkCtx, st, chunk)
		if err != nil {
			st.failChunk = chunk.Index + 1
			return err
		}

		chunkCtx = services.WithCredential(chunkCtx, cred.Label)
		clip, err := st.ws.Persist(chunk.Index, audio)
		if err != nil {
			st.failChunk = chunk.Index + 1
			return &ChunkError{Chunk: chunk.Index + 1, Credential: cred.Label, Err: err}
		}
		duration, err := p.assembler.Measure(chunkCtx, clip)
		if err != nil {
			st.failChunk = chunk.Index + 1
			return &ChunkError{Chunk: chunk.Index + 1, Credential: cred.Label, Err: err}
		}

		res := ChunkResult{
			Index:      chunk.Index,
			Chars:      chunk.Chars,
			SubUnits:   len(st.units[chunk.Index]),
			Credential: cred.Label,
			ClipPath:   clip,
			Duration:   duration,
		}
		st.results = append(st.results, res)
		st.rec.write(chunkCtx, "record chunk", func(ctx context.Context, s *journal.Store) error {
			return s.RecordChunk(ctx, st.runID, journal.ChunkRecord{
				Chunk: chunk.Index + 1, Chars: chunk.Chars, Credential: cred.Label, ClipPath: clip, Duration: duration,
			})
		})
		logging.WithContext(chunkCtx, p.logger).Info("chunk synthesized",
			logging.Int("chars", chunk.Chars),
			logging.Float64("duration_seconds", duration),
			logging.String("clip", clip),
		)
		p.emit(Event{State: StateSynthesizing, Chunk: chunk.Index + 1, Chunks: len(st.chunks), Credential: cred.Label, Completed: len(st.results)})
	}
	return nil
}

func (p *Pipeline) assemble(ctx context.Context, st *runState) error {
	p.emit(Event{State: StateAssembling, Chunks: len(st.chunks), Completed: len(st.results)})
	logger := logging.WithContext(services.WithStage(ctx, string(StateAssembling)), p.logger)

	clips := make([]string, len(st.results))
	total := 0.0
	for i, r := range st.results {
		clips[i] = r.ClipPath
		total += r.Duration
	}
	track, err := p.assembler.Concatenate(ctx, clips, st.ws.Path(st.rc.CombinedName))
	if err != nil {
		return err
	}
	st.result = &Result{
		RunID:    st.runID,
		WorkDir:  st.ws.Dir(),
		Chunks:   st.results,
		Track:    track,
		Duration: total,
	}
	for _, r := range st.results {
		st.result.TotalChars += r.Chars
	}
	logger.Info("combined track written",
		logging.String("path", track.Path),
		logging.Int("clips", track.Clips),
		logging.String("size", humanize.Bytes(uint64(max(track.SizeBytes, 0)))),
	)
	return nil
}

func (p *Pipeline) buildSubtitles(ctx context.Context, st *runState) error {
	p.emit(Event{State: StateBuildingSubtitles, Chunks: len(st.chunks), Completed: len(st.results)})
	logger := logging.WithContext(services.WithStage(ctx, string(StateBuildingSubtitles)), p.logger)

	durations := make([]float64, len(st.results))
	for i, r := range st.results {
		durations[i] = r.Duration
	}
	entries, err := subtitles.BuildTimeline(st.units, durations, st.rc.DisplayLineChars)
	if err != nil {
		return err
	}
	path := st.ws.Path(st.rc.SubtitleName)
	if err := subtitles.WriteFile(path, entries); err != nil {
		return services.Wrap(services.ErrAssembly, "subtitles", "write", path, err)
	}
	st.result.SubtitlePath = path
	st.result.Entries = len(entries)
	logger.Info("subtitles written",
		logging.String("path", path),
		logging.Int("entries", len(entries)),
		logging.String("end", subtitles.FormatTimestamp(subtitles.End(entries))),
	)
	return nil
}

func (p *Pipeline) finishOutputs(ctx context.Context, st *runState) error {
	logger := logging.WithContext(ctx, p.logger)
	artifacts := []string{st.result.Track.Path, st.result.SubtitlePath}

	if st.rc.Bundle {
		files := make([]string, 0, len(st.results)+2)
		for _, r := range st.results {
			files = append(files, r.ClipPath)
		}
		files = append(files, artifacts...)
		info, err := bundle.Write(st.ws.Path(st.rc.BundleName), files)
		if err != nil {
			return services.Wrap(services.ErrAssembly, "bundle", "write", st.rc.BundleName, err)
		}
		st.result.BundlePath = info.Path
		artifacts = append(artifacts, info.Path)
		logger.Info("bundle written",
			logging.String("path", info.Path),
			logging.Int("files", info.Files),
			logging.String("size", humanize.Bytes(uint64(max(info.SizeBytes, 0)))),
		)
	}

	if st.rc.ExportDir != "" {
		exported, err := fileutil.ExportFiles(st.rc.ExportDir, artifacts)
		if err != nil {
			return services.Wrap(services.ErrAssembly, "export", "copy artifacts", st.rc.ExportDir, err)
		}
		st.result.Exported = exported
		logger.Info("artifacts exported", logging.String("export_dir", st.rc.ExportDir), logging.Int("files", len(exported)))
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, logger *slog.Logger, st *runState, err error) {
	reason := services.FailureReason(err)
	credential := ""
	var chunkErr *ChunkError
	if errors.As(err, &chunkErr) {
		credential = chunkErr.Credential
	}
	st.rec.write(ctx, "finish run", func(ctx context.Context, s *journal.Store) error {
		return s.FinishRun(ctx, st.runID, journal.RunFailed, st.failChunk, reason, err.Error())
	})
	if errors.Is(err, context.Canceled) {
		logger.Info("run canceled", logging.Int("completed_chunks", len(st.results)))
	} else {
		attrs := []logging.Attr{
			logging.String("reason", reason),
			logging.Error(err),
			logging.Int("completed_chunks", len(st.results)),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("inspect the run with voicereel report; artifacts stay in %s until the next run", st.ws.Dir())),
		}
		if st.failChunk > 0 {
			attrs = append(attrs, logging.Int(logging.FieldChunk, st.failChunk))
		}
		if credential != "" {
			attrs = append(attrs, logging.String(logging.FieldCredential, credential))
		}
		logging.ErrorWithContext(logger, "run failed", "run_failed", attrs...)
	}
	p.emit(Event{State: StateFailed, Chunk: st.failChunk, Chunks: len(st.chunks), Completed: len(st.results), Err: err})
}

func (p *Pipeline) emit(ev Event) {
	if p.progress != nil {
		p.progress(ev)
	}
}
