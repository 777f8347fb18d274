package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"voicereel/internal/services"
)

// FailureKind classifies a failed provider call.
type FailureKind string

const (
	// FailureAuth means the provider rejected the credential itself.
	FailureAuth FailureKind = "auth"
	// FailureTimeout means the request exceeded its deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureTransport covers connection and protocol errors.
	FailureTransport FailureKind = "transport"
	// FailureProvider covers every other non-OK response.
	FailureProvider FailureKind = "provider"
)

// AuthHint is the remediation shown to operators when a key is rejected.
const AuthHint = "the API key may be blocked or revoked; create a new key or upgrade the account"

// Failure is the structured error returned by Synthesize.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	Err        error
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString("elevenlabs: ")
	b.WriteString(string(f.Kind))
	if f.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", f.StatusCode)
	}
	if f.Message != "" {
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the services marker for the failure kind plus the cause.
func (f *Failure) Unwrap() []error {
	var markers []error
	switch f.Kind {
	case FailureAuth:
		markers = []error{services.ErrAuth}
	case FailureTimeout:
		markers = []error{services.ErrSynthesis, services.ErrTimeout}
	case FailureTransport:
		markers = []error{services.ErrSynthesis, services.ErrTransient}
	default:
		markers = []error{services.ErrSynthesis}
	}
	if f.Err != nil {
		markers = append(markers, f.Err)
	}
	return markers
}

// Hint returns an operator-facing next step for the failure.
func (f *Failure) Hint() string {
	switch f.Kind {
	case FailureAuth:
		return AuthHint
	case FailureTimeout:
		return "the provider did not answer in time; raise provider.timeout_seconds or shorten segmentation.max_chunk_chars"
	case FailureTransport:
		return "check network connectivity to the provider"
	default:
		return "check the voice id and voice settings; the next credential will be tried"
	}
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

type errorDetail struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

// statusFailure turns a non-OK response into a *Failure, reading
// detail.message when the body carries one.
func statusFailure(resp *http.Response) *Failure {
	status, message := parseErrorBody(readErrorBody(resp))
	if message == "" {
		message = fmt.Sprintf("provider returned %s", http.StatusText(resp.StatusCode))
	}
	kind := FailureProvider
	if (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) && status != "quota_exceeded" {
		kind = FailureAuth
	}
	return &Failure{Kind: kind, StatusCode: resp.StatusCode, Message: message}
}

// parseErrorBody accepts the provider's detail shapes: an object with
// status/message, a bare string, or a list of validation errors.
func parseErrorBody(body []byte) (status, message string) {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return "", ""
	}
	var detail errorDetail
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		return detail.Status, strings.TrimSpace(detail.Message)
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return "", strings.TrimSpace(text)
	}
	var list []errorDetail
	if err := json.Unmarshal(envelope.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, d := range list {
			if m := strings.TrimSpace(d.Msg + d.Message); m != "" {
				msgs = append(msgs, m)
			}
		}
		return "", strings.Join(msgs, "; ")
	}
	return "", ""
}

func transportFailure(err error) *Failure {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Failure{Kind: FailureTimeout, Message: "request timed out", Err: err}
	}
	return &Failure{Kind: FailureTransport, Message: "request failed", Err: err}
}
