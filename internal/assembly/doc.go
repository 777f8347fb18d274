// Package assembly owns the per-run working directory and turns synthesized
// clips into one combined track.
//
// A Workspace is opened at the start of every run. Opening takes an exclusive
// file lock on the directory and removes the audio, subtitle, archive and
// journal artifacts left by the previous run, so a failed run stays
// inspectable until the next one starts. Clips are persisted under
// zero-padded, index-derived names so that a numeric sort over the directory
// recovers chunk order.
//
// The Assembler measures clip durations through a Prober and joins clips
// through a Concatenator; the ffprobe and ffmpeg packages provide the
// production implementations.
package assembly
