package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"voicereel/internal/services"
)

const (
	defaultBaseURL     = "https://api.elevenlabs.io"
	defaultHTTPTimeout = 120 * time.Second
	apiKeyHeader       = "xi-api-key"
	maxErrorBody       = 64 << 10
)

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	BaseURL           string
	TimeoutSeconds    int
	RequestsPerMinute int
	// OutputFormat is passed as the output_format query parameter when set.
	OutputFormat string
}

// Client issues synthesis and quota requests. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter overrides the request pacing derived from RequestsPerMinute.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:           strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds:    cfg.TimeoutSeconds,
			RequestsPerMinute: cfg.RequestsPerMinute,
			OutputFormat:      strings.TrimSpace(cfg.OutputFormat),
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerMinute > 0 {
		client.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// Request describes one synthesis call.
type Request struct {
	Text     string
	VoiceID  string
	ModelID  string
	Settings VoiceSettings
}

type synthesisPayload struct {
	Text          string                `json:"text"`
	ModelID       string                `json:"model_id,omitempty"`
	VoiceSettings *voiceSettingsPayload `json:"voice_settings,omitempty"`
}

// Synthesize converts text to encoded audio with the given API key. Any
// non-200 response, transport error, or timeout is returned as *Failure.
// Cancellation of ctx is returned as the context error.
func (c *Client) Synthesize(ctx context.Context, apiKey string, req Request) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, services.Wrap(services.ErrValidation, "synthesis", "request", "text required", nil)
	}
	if strings.TrimSpace(req.VoiceID) == "" {
		return nil, services.Wrap(services.ErrValidation, "synthesis", "request", "voice id required", nil)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, services.Wrap(services.ErrValidation, "synthesis", "request", "api key required", nil)
	}

	body, err := json.Marshal(synthesisPayload{
		Text:          req.Text,
		ModelID:       strings.TrimSpace(req.ModelID),
		VoiceSettings: req.Settings.payload(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode synthesis request: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/v1/text-to-speech/" + url.PathEscape(strings.TrimSpace(req.VoiceID))
	if c.cfg.OutputFormat != "" {
		endpoint += "?" + url.Values{"output_format": {c.cfg.OutputFormat}}.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	httpReq.Header.Set(apiKeyHeader, strings.TrimSpace(apiKey))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := c.do(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusFailure(resp)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return nil, ctxErr
		}
		return nil, transportFailure(err)
	}
	if len(audio) == 0 {
		return nil, &Failure{Kind: FailureProvider, StatusCode: resp.StatusCode, Message: "provider returned an empty audio body"}
	}
	return audio, nil
}

// do paces and sends a request, mapping transport errors to *Failure.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &Failure{Kind: FailureTimeout, Message: "request would exceed deadline while rate limited", Err: err}
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return nil, ctxErr
		}
		return nil, transportFailure(err)
	}
	return resp, nil
}

func readErrorBody(resp *http.Response) []byte {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return data
}
