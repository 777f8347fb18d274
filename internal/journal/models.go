package journal

import "time"

// RunStatus is the lifecycle state of a journaled run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Outcome classifies a single synthesis attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeAuth      Outcome = "auth"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeTransport Outcome = "transport"
	OutcomeProvider  Outcome = "provider"
)

// Run is the journal row for one pipeline execution.
type Run struct {
	ID           string
	Status       RunStatus
	VoiceID      string
	ModelID      string
	TotalChars   int
	ChunkCount   int
	FailedChunk  int // 1-based; zero when no chunk failed
	ErrorReason  string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// CredentialRecord captures the quota observed for a credential at run start.
type CredentialRecord struct {
	Position  int
	Label     string
	Remaining *int
	Error     string
}

// Attempt is one synthesis call for a chunk.
type Attempt struct {
	Chunk      int // 1-based
	Credential string
	Outcome    Outcome
	StatusCode int
	Message    string
	CreatedAt  time.Time
}

// ChunkRecord is a chunk whose clip was persisted and measured.
type ChunkRecord struct {
	Chunk      int // 1-based
	Chars      int
	Credential string
	ClipPath   string
	Duration   float64
}

// Report is everything journaled for a run.
type Report struct {
	Run         Run
	Credentials []CredentialRecord
	Attempts    []Attempt
	Chunks      []ChunkRecord
}

// AudioSeconds sums the measured durations of completed chunks.
func (r *Report) AudioSeconds() float64 {
	total := 0.0
	for _, c := range r.Chunks {
		total += c.Duration
	}
	return total
}
