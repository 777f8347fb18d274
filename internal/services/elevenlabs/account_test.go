package elevenlabs_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"voicereel/internal/services"
	"voicereel/internal/services/elevenlabs"
)

func TestSubscriptionRemaining(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/user" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "sk_quota" {
			t.Errorf("missing api key header")
		}
		_, _ = w.Write([]byte(`{"subscription":{"tier":"starter","character_count":2500,"character_limit":30000,"next_character_count_reset_unix":1700000000}}`))
	}))
	defer server.Close()

	client := elevenlabs.NewClient(elevenlabs.Config{BaseURL: server.URL})
	sub, err := client.Subscription(context.Background(), "sk_quota")
	if err != nil {
		t.Fatalf("Subscription failed: %v", err)
	}
	if sub.Remaining() != 27500 || sub.Tier != "starter" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.NextReset().IsZero() {
		t.Fatal("expected reset time")
	}
	remaining, err := client.Remaining(context.Background(), "sk_quota")
	if err != nil || remaining != 27500 {
		t.Fatalf("Remaining = %d, %v", remaining, err)
	}
}

func TestSubscriptionErrorsAreQuotaCheckErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"detail":{"message":"Invalid API key"}}`},
		{name: "malformed", status: http.StatusOK, body: `{"subscription":`},
		{name: "missing subscription", status: http.StatusOK, body: `{"user_id":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := elevenlabs.NewClient(elevenlabs.Config{BaseURL: server.URL})
			_, err := client.Remaining(context.Background(), "k")
			if !errors.Is(err, services.ErrQuotaCheck) {
				t.Fatalf("expected ErrQuotaCheck, got %v", err)
			}
		})
	}
}

func TestSubscriptionUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := elevenlabs.NewClient(elevenlabs.Config{BaseURL: url})
	if _, err := client.Remaining(context.Background(), "k"); !errors.Is(err, services.ErrQuotaCheck) {
		t.Fatalf("expected ErrQuotaCheck for unreachable endpoint, got %v", err)
	}
}
