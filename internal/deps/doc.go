// Package deps checks the external binaries voicereel shells out to.
//
// CheckBinaries resolves each requirement on PATH and, when asked, reads the
// tool's version line so `voicereel doctor` can show which ffmpeg build is in
// use.
package deps
