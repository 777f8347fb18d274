// Package subtitles builds the SRT timeline for a narration run.
//
// Timing is proportional: each chunk's measured clip duration is divided
// among its sub-units by character share, walking a single cursor across all
// chunks in order. The package also formats, parses and sanity-checks SRT
// content so generated files can be inspected after a run.
package subtitles
