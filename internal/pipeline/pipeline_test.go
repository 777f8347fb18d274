package pipeline_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"voicereel/internal/bundle"
	"voicereel/internal/config"
	"voicereel/internal/credentials"
	"voicereel/internal/journal"
	"voicereel/internal/pipeline"
	"voicereel/internal/services"
	"voicereel/internal/services/elevenlabs"
	"voicereel/internal/subtitles"
	"voicereel/internal/testsupport"
)

const (
	keyA = "sk_alpha_0001"
	keyB = "sk_bravo_0002"
	keyC = "sk_charl_0003"
)

type harness struct {
	provider *testsupport.Provider
	media    *testsupport.FakeMedia
	cfg      *config.Config
	states   []pipeline.State
	synth    pipeline.Synthesizer
}

func newHarness(t *testing.T, keys []string, opts ...testsupport.ProviderOption) *harness {
	t.Helper()
	provider := testsupport.NewProvider(t, opts...)
	h := &harness{
		provider: provider,
		media:    &testsupport.FakeMedia{SecondsPerChar: 0.01},
		cfg:      testsupport.NewConfig(t, testsupport.WithProvider(provider), testsupport.WithAPIKeys(keys...)),
	}
	return h
}

func (h *harness) run(t *testing.T, text string, mutate ...func(*pipeline.RunConfig)) (*pipeline.Result, error) {
	t.Helper()
	client := elevenlabs.NewClient(elevenlabs.Config{BaseURL: h.provider.URL, TimeoutSeconds: 5})
	synth := h.synth
	if synth == nil {
		synth = client
	}
	p, err := pipeline.New(pipeline.Deps{
		Synthesizer:  synth,
		Quota:        client,
		Prober:       h.media,
		Concatenator: h.media,
		Progress:     func(ev pipeline.Event) { h.states = append(h.states, ev.State) },
	})
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}
	rc, err := pipeline.FromConfig(h.cfg, text)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	for _, m := range mutate {
		m(&rc)
	}
	return p.Run(context.Background(), rc)
}

func sentence(n int) string {
	return strings.Repeat("a", n-1) + "."
}

// threeChunkText segments into chunks of exactly 10000, 10000 and 5000 characters.
func threeChunkText() string {
	var parts []string
	for _, count := range []int{10, 10, 5} {
		parts = append(parts, sentence(1000))
		for i := 1; i < count; i++ {
			parts = append(parts, sentence(999))
		}
	}
	return strings.Join(parts, " ")
}

func latestReport(t *testing.T, dir string) *journal.Report {
	t.Helper()
	store, err := journal.OpenExisting(dir)
	if err != nil {
		t.Fatalf("OpenExisting failed: %v", err)
	}
	defer store.Close()
	run, err := store.LatestRun(context.Background())
	if err != nil || run == nil {
		t.Fatalf("LatestRun failed: run=%v err=%v", run, err)
	}
	report, err := store.Report(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	return report
}

func TestRunAssignsCredentialsByQuota(t *testing.T) {
	h := newHarness(t, []string{keyA, keyB},
		testsupport.WithQuota(keyA, 15000),
		testsupport.WithQuota(keyB, 20000),
	)

	result, err := h.run(t, threeChunkText())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(result.Chunks))
	}
	for i, want := range []int{10000, 10000, 5000} {
		if result.Chunks[i].Chars != want {
			t.Fatalf("chunk %d has %d chars, want %d", i+1, result.Chunks[i].Chars, want)
		}
	}
	if got, want := h.provider.SuccessfulKeys(), []string{keyA, keyB, keyA}; !reflect.DeepEqual(got, want) {
		t.Fatalf("credential assignment = %v, want %v", got, want)
	}
	labelA := credentials.Label(0, keyA)
	if result.Chunks[0].Credential != labelA || result.Chunks[2].Credential != labelA {
		t.Fatalf("unexpected chunk credentials %+v", result.Chunks)
	}
	if h.provider.Remaining(keyA) != 0 || h.provider.Remaining(keyB) != 10000 {
		t.Fatalf("unexpected provider quotas A=%d B=%d", h.provider.Remaining(keyA), h.provider.Remaining(keyB))
	}

	if math.Abs(result.Duration-250) > 1e-6 {
		t.Fatalf("combined duration %v, want 250", result.Duration)
	}
	if _, err := os.Stat(result.Track.Path); err != nil {
		t.Fatalf("combined track missing: %v", err)
	}
	if got := h.media.Joined(); len(got) != 3 || filepath.Base(got[0]) != "seg0001.mp3" || filepath.Base(got[2]) != "seg0003.mp3" {
		t.Fatalf("unexpected concat order %v", got)
	}

	entries, err := subtitles.ReadFile(result.SubtitlePath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(entries) != result.Entries {
		t.Fatalf("file has %d entries, result reports %d", len(entries), result.Entries)
	}
	if issues := subtitles.Validate(entries, result.Duration); len(issues) != 0 {
		t.Fatalf("subtitle issues: %v", issues)
	}

	report := latestReport(t, result.WorkDir)
	if report.Run.Status != journal.RunSucceeded || report.Run.ChunkCount != 3 || report.Run.TotalChars != 25000 {
		t.Fatalf("unexpected journal run %+v", report.Run)
	}
	if len(report.Chunks) != 3 || len(report.Credentials) != 2 {
		t.Fatalf("unexpected journal contents %+v", report)
	}
}

func TestRunFailsOverOnProviderError(t *testing.T) {
	h := newHarness(t, []string{keyA, keyB},
		testsupport.WithQuota(keyA, 1000),
		testsupport.WithQuota(keyB, 1000),
		testsupport.WithFailure(keyA, 500, "voice temporarily unavailable"),
	)

	result, err := h.run(t, "Hello there. General Kenobi.")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := h.provider.SuccessfulKeys(); !reflect.DeepEqual(got, []string{keyB}) {
		t.Fatalf("expected failover to B, got %v", got)
	}
	for _, cred := range result.Credentials {
		if cred.Blocked {
			t.Fatalf("provider errors must not block credentials: %+v", cred)
		}
	}

	report := latestReport(t, result.WorkDir)
	if len(report.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %+v", report.Attempts)
	}
	if report.Attempts[0].Outcome != journal.OutcomeProvider || report.Attempts[0].StatusCode != 500 {
		t.Fatalf("unexpected first attempt %+v", report.Attempts[0])
	}
	if report.Attempts[1].Outcome != journal.OutcomeSuccess {
		t.Fatalf("unexpected second attempt %+v", report.Attempts[1])
	}
}

func TestRunBlocksRejectedCredentialForRestOfRun(t *testing.T) {
	h := newHarness(t, []string{keyA, keyB, keyC},
		testsupport.WithQuota(keyA, 1000),
		testsupport.WithQuota(keyB, 12),
		testsupport.WithQuota(keyC, 1000),
		testsupport.WithFailure(keyA, 401, "API key is blocked"),
	)

	result, err := h.run(t, "Hello there. General Kenobi.", func(rc *pipeline.RunConfig) {
		rc.MaxChunkChars = 15
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(result.Chunks))
	}

	var aRequests int
	for _, r := range h.provider.Requests() {
		if r.Key == keyA {
			aRequests++
		}
	}
	if aRequests != 1 {
		t.Fatalf("rejected credential called %d times, want 1", aRequests)
	}
	if got := h.provider.SuccessfulKeys(); !reflect.DeepEqual(got, []string{keyB, keyC}) {
		t.Fatalf("unexpected assignment %v", got)
	}
	if !result.Credentials[0].Blocked {
		t.Fatal("expected first credential blocked")
	}
}

func TestRunTimeoutTriggersFailover(t *testing.T) {
	h := newHarness(t, []string{keyA, keyB},
		testsupport.WithQuota(keyA, 1000),
		testsupport.WithQuota(keyB, 1000),
	)
	client := elevenlabs.NewClient(elevenlabs.Config{BaseURL: h.provider.URL})
	h.synth = timeoutFor{key: keyA, next: client}

	if _, err := h.run(t, "Short text."); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := h.provider.SuccessfulKeys(); !reflect.DeepEqual(got, []string{keyB}) {
		t.Fatalf("expected B after timeout, got %v", got)
	}
}

type timeoutFor struct {
	key  string
	next pipeline.Synthesizer
}

func (s timeoutFor) Synthesize(ctx context.Context, apiKey string, req elevenlabs.Request) ([]byte, error) {
	if apiKey == s.key {
		return nil, &elevenlabs.Failure{Kind: elevenlabs.FailureTimeout, Message: "request timed out", Err: context.DeadlineExceeded}
	}
	return s.next.Synthesize(ctx, apiKey, req)
}

func TestRunAbortsWhenNoCredentialQualifies(t *testing.T) {
	h := newHarness(t, []string{keyA}, testsupport.WithQuota(keyA, 5))

	result, err := h.run(t, "Hello there.")
	if err == nil {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !pipeline.IsExhausted(err) {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
	var chunkErr *pipeline.ChunkError
	if !errors.As(err, &chunkErr) || chunkErr.Chunk != 1 {
		t.Fatalf("expected ChunkError for chunk 1, got %v", err)
	}
	if len(h.provider.Requests()) != 0 {
		t.Fatal("no synthesis call should be made without an eligible credential")
	}
	if _, statErr := os.Stat(filepath.Join(h.cfg.Paths.WorkDir, h.cfg.Output.CombinedName)); !os.IsNotExist(statErr) {
		t.Fatalf("combined track must not exist after failure: %v", statErr)
	}
	if h.states[len(h.states)-1] != pipeline.StateFailed {
		t.Fatalf("expected final state failed, got %v", h.states)
	}

	report := latestReport(t, h.cfg.Paths.WorkDir)
	if report.Run.Status != journal.RunFailed || report.Run.FailedChunk != 1 || report.Run.ErrorReason != "credentials_exhausted" {
		t.Fatalf("unexpected journal run %+v", report.Run)
	}
}

func TestRunAbortsWhenEveryCredentialFails(t *testing.T) {
	h := newHarness(t, []string{keyA, keyB},
		testsupport.WithQuota(keyA, 1000),
		testsupport.WithQuota(keyB, 1000),
		testsupport.WithFailure(keyA, 422, "voice settings rejected"),
		testsupport.WithFailure(keyB, 422, "voice settings rejected"),
	)

	_, err := h.run(t, "First chunk. Second chunk.")
	var chunkErr *pipeline.ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected ChunkError, got %v", err)
	}
	if chunkErr.Chunk != 1 || chunkErr.Credential != credentials.Label(1, keyB) {
		t.Fatalf("unexpected failing chunk/credential %+v", chunkErr)
	}
	if !errors.Is(err, services.ErrNoEligibleCredential) || !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected exhaustion wrapping the synthesis failure, got %v", err)
	}
	if got := len(h.provider.Requests()); got != 2 {
		t.Fatalf("each credential should be tried once, got %d requests", got)
	}
}

func TestRunSkipsCredentialWithFailedQuotaCheck(t *testing.T) {
	h := newHarness(t, []string{keyA, keyB},
		testsupport.WithQuota(keyA, 1000),
		testsupport.WithQuotaError(keyA),
		testsupport.WithQuota(keyB, 1000),
	)
	if _, err := h.run(t, "Hello."); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, r := range h.provider.Requests() {
		if r.Key == keyA {
			t.Fatal("credential with unknown quota must not be used")
		}
	}
}

func TestRunPurgesPreviousArtifacts(t *testing.T) {
	h := newHarness(t, []string{keyA}, testsupport.WithQuota(keyA, 1000))
	if err := os.MkdirAll(h.cfg.Paths.WorkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"seg0007.mp3", "output.srt", "full.mp3"} {
		if err := os.WriteFile(filepath.Join(h.cfg.Paths.WorkDir, name), []byte("stale"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	result, err := h.run(t, "Only one chunk here.")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Paths.WorkDir, "seg0007.mp3")); !os.IsNotExist(err) {
		t.Fatalf("stale clip survived: %v", err)
	}
	if got := h.media.Joined(); len(got) != 1 {
		t.Fatalf("combined track must contain only this run's clips, got %v", got)
	}
	data, err := os.ReadFile(result.Track.Path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") {
		t.Fatal("combined track contains stale data")
	}
}

func TestRunValidationFailsBeforeNetwork(t *testing.T) {
	h := newHarness(t, []string{keyA}, testsupport.WithQuota(keyA, 1000))

	_, err := h.run(t, "   ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(h.provider.Requests()) != 0 {
		t.Fatal("validation failure must not reach the provider")
	}
	if _, statErr := os.Stat(h.cfg.Paths.WorkDir); !os.IsNotExist(statErr) {
		t.Fatalf("working directory should not be touched: %v", statErr)
	}
}

func TestRunReportsStatesInOrder(t *testing.T) {
	h := newHarness(t, []string{keyA}, testsupport.WithQuota(keyA, 1000))
	if _, err := h.run(t, "One. Two."); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	var distinct []pipeline.State
	for _, s := range h.states {
		if len(distinct) == 0 || distinct[len(distinct)-1] != s {
			distinct = append(distinct, s)
		}
	}
	want := []pipeline.State{
		pipeline.StateValidating,
		pipeline.StateCheckingCredentials,
		pipeline.StateSegmenting,
		pipeline.StateSynthesizing,
		pipeline.StateAssembling,
		pipeline.StateBuildingSubtitles,
		pipeline.StateDone,
	}
	if !reflect.DeepEqual(distinct, want) {
		t.Fatalf("states = %v, want %v", distinct, want)
	}
}

func TestRunBundlesAndExports(t *testing.T) {
	h := newHarness(t, []string{keyA}, testsupport.WithQuota(keyA, 1000))
	exportDir := filepath.Join(testsupport.BaseDir(h.cfg), "exports")

	result, err := h.run(t, "First sentence. Second sentence.", func(rc *pipeline.RunConfig) {
		rc.MaxChunkChars = 16
		rc.Bundle = true
		rc.ExportDir = exportDir
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	names, err := bundle.List(result.BundlePath)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"seg0001.mp3", "seg0002.mp3", "full.mp3", "output.srt"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("bundle entries = %v, want %v", names, want)
	}
	if len(result.Exported) != 3 {
		t.Fatalf("expected combined, subtitles and bundle exported, got %v", result.Exported)
	}
	for _, path := range result.Exported {
		if filepath.Dir(path) != exportDir {
			t.Fatalf("export %s outside %s", path, exportDir)
		}
	}
}

func TestRunConcatenationFailureIsFatal(t *testing.T) {
	h := newHarness(t, []string{keyA}, testsupport.WithQuota(keyA, 1000))
	h.media.FailConcat = true

	_, err := h.run(t, "Hello.")
	if !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("expected ErrAssembly, got %v", err)
	}
	report := latestReport(t, h.cfg.Paths.WorkDir)
	if report.Run.ErrorReason != "assembly_failed" || len(report.Chunks) != 1 {
		t.Fatalf("unexpected journal %+v", report.Run)
	}
}

func TestRunSendsVoiceSettings(t *testing.T) {
	h := newHarness(t, []string{keyA}, testsupport.WithQuota(keyA, 1000))
	if _, err := h.run(t, "Hello."); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	reqs := h.provider.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].VoiceID != h.cfg.Voice.VoiceID || reqs[0].ModelID != h.cfg.Voice.ModelID {
		t.Fatalf("unexpected voice/model %+v", reqs[0])
	}
	if reqs[0].Settings["stability"] != h.cfg.Voice.Stability {
		t.Fatalf("unexpected settings %+v", reqs[0].Settings)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := pipeline.New(pipeline.Deps{}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
