// Package journal records a narration run in SQLite inside the working
// directory.
//
// The journal captures the run itself, the quota observed for each
// credential, every synthesis attempt and every completed chunk. It is a run
// artifact: the workspace purges run.db at the start of the next run, so a
// failed run remains inspectable with `voicereel report` until then.
//
// Schema changes bump schemaVersion in schema.go. Because the file never
// outlives a run there is no migration path; a mismatched file is rejected.
package journal
