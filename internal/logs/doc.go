// Package logs reads the voicereel log file for `voicereel logs`.
//
// Tail returns the last N lines or everything after a byte offset, with
// bounded memory. Follow mode polls until new lines arrive or the wait
// elapses, so the CLI can loop on the returned offset. A Contains filter
// narrows output to one run id or event type.
package logs
