package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

// ProviderRequest is a synthesis call observed by the fake provider.
type ProviderRequest struct {
	Key          string
	VoiceID      string
	ModelID      string
	Text         string
	OutputFormat string
	Settings     map[string]any
	Status       int
}

// Provider is an httptest stand-in for the speech API. Each key has a
// character quota that successful syntheses consume; scripted failures are
// returned before the quota is consulted.
type Provider struct {
	URL string

	mu          sync.Mutex
	quotas      map[string]int
	quotaErrors map[string]bool
	failures    map[string][]scriptedFailure
	requests    []ProviderRequest
}

type scriptedFailure struct {
	status int
	body   string
}

// ProviderOption configures the fake provider.
type ProviderOption func(*Provider)

// WithQuota gives key the remaining character quota.
func WithQuota(key string, remaining int) ProviderOption {
	return func(p *Provider) { p.quotas[key] = remaining }
}

// WithQuotaError makes the account endpoint fail for key.
func WithQuotaError(key string) ProviderOption {
	return func(p *Provider) { p.quotaErrors[key] = true }
}

// WithFailure queues a synthesis failure for key. Failures are returned in
// the order queued, one per request.
func WithFailure(key string, status int, detail string) ProviderOption {
	return func(p *Provider) {
		body, _ := json.Marshal(map[string]any{"detail": map[string]string{"status": "error", "message": detail}})
		p.failures[key] = append(p.failures[key], scriptedFailure{status: status, body: string(body)})
	}
}

// NewProvider starts a fake provider that is closed with the test.
func NewProvider(t testing.TB, opts ...ProviderOption) *Provider {
	t.Helper()
	p := &Provider{
		quotas:      make(map[string]int),
		quotaErrors: make(map[string]bool),
		failures:    make(map[string][]scriptedFailure),
	}
	for _, opt := range opts {
		opt(p)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/user", p.handleUser)
	mux.HandleFunc("POST /v1/text-to-speech/{voice}", p.handleSynthesis)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	p.URL = server.URL
	return p
}

// Requests returns every synthesis request in arrival order.
func (p *Provider) Requests() []ProviderRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProviderRequest(nil), p.requests...)
}

// SuccessfulKeys lists, in order, the key used by each successful synthesis.
func (p *Provider) SuccessfulKeys() []string {
	var keys []string
	for _, r := range p.Requests() {
		if r.Status == http.StatusOK {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

// Remaining returns the quota left on key.
func (p *Provider) Remaining(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quotas[key]
}

// FakeAudio is the body returned for text. FakeMedia reads the character
// count back out of it.
func FakeAudio(text string) []byte {
	return []byte(fmt.Sprintf("FAKEAUDIO chars=%d\n", utf8.RuneCountInString(text)))
}

func (p *Provider) handleUser(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("xi-api-key")
	p.mu.Lock()
	remaining, known := p.quotas[key]
	broken := p.quotaErrors[key]
	p.mu.Unlock()

	switch {
	case broken:
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	case !known:
		writeDetail(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"subscription": map[string]any{
			"tier":            "free",
			"character_count": 1000,
			"character_limit": 1000 + remaining,
		},
	})
}

func (p *Provider) handleSynthesis(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text          string         `json:"text"`
		ModelID       string         `json:"model_id"`
		VoiceSettings map[string]any `json:"voice_settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req := ProviderRequest{
		Key:          r.Header.Get("xi-api-key"),
		VoiceID:      r.PathValue("voice"),
		ModelID:      payload.ModelID,
		Text:         payload.Text,
		OutputFormat: r.URL.Query().Get("output_format"),
		Settings:     payload.VoiceSettings,
	}
	chars := utf8.RuneCountInString(payload.Text)

	p.mu.Lock()
	remaining, known := p.quotas[req.Key]
	var failure *scriptedFailure
	if queue := p.failures[req.Key]; len(queue) > 0 {
		failure = &queue[0]
		p.failures[req.Key] = queue[1:]
	}
	switch {
	case failure != nil:
		req.Status = failure.status
	case !known:
		req.Status = http.StatusUnauthorized
	case chars > remaining:
		req.Status = http.StatusUnauthorized
	default:
		req.Status = http.StatusOK
		p.quotas[req.Key] = remaining - chars
	}
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	switch {
	case failure != nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(failure.status)
		_, _ = w.Write([]byte(failure.body))
	case !known:
		writeDetail(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
	case chars > remaining:
		writeDetail(w, http.StatusUnauthorized, "quota_exceeded",
			fmt.Sprintf("This request exceeds your quota. You have %d credits remaining, while %d credits are required for this request.", remaining, chars))
	default:
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(FakeAudio(payload.Text))
	}
}

func writeDetail(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"detail": map[string]string{"status": code, "message": strings.TrimSpace(message)},
	})
}
