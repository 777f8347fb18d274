package pipeline

import (
	"fmt"

	"voicereel/internal/assembly"
	"voicereel/internal/credentials"
)

// State is a step of the run state machine.
type State string

const (
	StateIdle                State = "idle"
	StateValidating          State = "validating"
	StateCheckingCredentials State = "checking_credentials"
	StateSegmenting          State = "segmenting"
	StateSynthesizing        State = "synthesizing"
	StateAssembling          State = "assembling"
	StateBuildingSubtitles   State = "building_subtitles"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

// Event is delivered to the progress callback on every state change and
// after each chunk completes.
type Event struct {
	State State
	// Chunk is 1-based and set while synthesizing.
	Chunk      int
	Chunks     int
	Credential string
	// Completed is the number of chunks whose clip is persisted and measured.
	Completed int
	Err       error
}

// Progress receives run events. It is called from the run goroutine and
// must not block.
type Progress func(Event)

// ChunkResult describes one synthesized chunk.
type ChunkResult struct {
	Index      int
	Chars      int
	SubUnits   int
	Credential string
	ClipPath   string
	Duration   float64
}

// Result is everything a successful run produced.
type Result struct {
	RunID        string
	WorkDir      string
	TotalChars   int
	Chunks       []ChunkResult
	Track        assembly.Track
	Duration     float64
	SubtitlePath string
	Entries      int
	BundlePath   string
	Exported     []string
	JournalPath  string
	Credentials  []credentials.Credential
}

// ChunkError identifies the chunk, and the credential when one was in use,
// that made a run fail.
type ChunkError struct {
	// Chunk is 1-based.
	Chunk      int
	Credential string
	Err        error
}

func (e *ChunkError) Error() string {
	if e.Credential != "" {
		return fmt.Sprintf("chunk %d (credential %s): %v", e.Chunk, e.Credential, e.Err)
	}
	return fmt.Sprintf("chunk %d: %v", e.Chunk, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }
