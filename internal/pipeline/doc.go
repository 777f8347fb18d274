// Package pipeline drives one narration run from source text to a combined
// track and subtitle file.
//
// A run moves through fixed states: Validating, CheckingCredentials,
// Segmenting, Synthesizing (once per chunk), Assembling, BuildingSubtitles
// and Done, with Failed reachable from any of them. Chunks are synthesized
// sequentially. For each chunk the first credential, in configured order,
// whose known quota covers the chunk is used; a provider failure moves on to
// the next eligible credential for the same chunk, and a rejected credential
// is blocked for the rest of the run. A chunk that exhausts every eligible
// credential aborts the run; partial output is never promoted to a result.
//
// Every run writes a journal (see internal/journal) next to its artifacts so
// a failed run can be inspected until the next run purges the directory.
package pipeline
