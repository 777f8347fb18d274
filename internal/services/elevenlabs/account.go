package elevenlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"voicereel/internal/services"
)

// Subscription is the quota portion of the account endpoint response.
type Subscription struct {
	Tier           string `json:"tier"`
	CharacterCount int    `json:"character_count"`
	CharacterLimit int    `json:"character_limit"`
	NextResetUnix  int64  `json:"next_character_count_reset_unix"`
}

// Remaining is the character budget left in the billing period.
func (s Subscription) Remaining() int {
	return s.CharacterLimit - s.CharacterCount
}

// NextReset returns when the quota resets, or the zero time when unknown.
func (s Subscription) NextReset() time.Time {
	if s.NextResetUnix <= 0 {
		return time.Time{}
	}
	return time.Unix(s.NextResetUnix, 0).UTC()
}

type userResponse struct {
	Subscription *Subscription `json:"subscription"`
}

// Subscription fetches the account's subscription for apiKey. Errors carry
// services.ErrQuotaCheck.
func (c *Client) Subscription(ctx context.Context, apiKey string) (Subscription, error) {
	if strings.TrimSpace(apiKey) == "" {
		return Subscription{}, services.Wrap(services.ErrQuotaCheck, "quota", "request", "api key required", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/user", nil)
	if err != nil {
		return Subscription{}, services.Wrap(services.ErrQuotaCheck, "quota", "build request", "", err)
	}
	req.Header.Set(apiKeyHeader, strings.TrimSpace(apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return Subscription{}, services.Wrap(services.ErrQuotaCheck, "quota", "request", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Subscription{}, services.Wrap(services.ErrQuotaCheck, "quota", "request", "", statusFailure(resp))
	}

	var payload userResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Subscription{}, services.Wrap(services.ErrQuotaCheck, "quota", "decode", "malformed account response", err)
	}
	if payload.Subscription == nil {
		return Subscription{}, services.Wrap(services.ErrQuotaCheck, "quota", "decode", "account response has no subscription", nil)
	}
	if payload.Subscription.CharacterLimit < 0 || payload.Subscription.CharacterCount < 0 {
		return Subscription{}, services.Wrap(services.ErrQuotaCheck, "quota", "decode",
			fmt.Sprintf("invalid counters limit=%d count=%d", payload.Subscription.CharacterLimit, payload.Subscription.CharacterCount), nil)
	}
	return *payload.Subscription, nil
}

// Remaining implements credentials.QuotaChecker.
func (c *Client) Remaining(ctx context.Context, apiKey string) (int, error) {
	sub, err := c.Subscription(ctx, apiKey)
	if err != nil {
		return 0, err
	}
	return sub.Remaining(), nil
}
