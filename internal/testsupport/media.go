package testsupport

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// FakeMedia implements the assembler's prober and concatenator without
// ffmpeg. Clips produced by FakeAudio last SecondsPerChar per character.
type FakeMedia struct {
	SecondsPerChar float64
	// FailConcat makes Concat return an error.
	FailConcat bool

	mu     sync.Mutex
	joined []string
}

// Duration reads the character count from a FakeAudio clip.
func (m *FakeMedia) Duration(_ context.Context, path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var chars int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "FAKEAUDIO chars=%d", &chars); err != nil {
		return 0, fmt.Errorf("undecodable clip %s: %w", path, err)
	}
	rate := m.SecondsPerChar
	if rate <= 0 {
		rate = 0.01
	}
	return float64(chars) * rate, nil
}

// Concat writes the clips' bytes back to back into outputPath.
func (m *FakeMedia) Concat(_ context.Context, inputs []string, outputPath string) error {
	if m.FailConcat {
		return fmt.Errorf("concat failed")
	}
	var combined []byte
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		combined = append(combined, data...)
	}
	m.mu.Lock()
	m.joined = append([]string(nil), inputs...)
	m.mu.Unlock()
	return os.WriteFile(outputPath, combined, 0o644)
}

// Joined returns the inputs of the last Concat call.
func (m *FakeMedia) Joined() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.joined...)
}
