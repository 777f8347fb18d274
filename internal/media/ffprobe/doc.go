// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: measures clip durations for the audio assembler
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
package ffprobe
