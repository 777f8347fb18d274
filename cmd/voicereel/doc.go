// Package main hosts the voicereel CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into narration
// runs, quota reports, segmentation previews, run journal reports, log
// tailing, readiness checks, and configuration scaffolding. It centralizes
// configuration resolution, client construction, and logging setup so
// subcommands can focus on presentation.
//
// Keep this package lean: behavior belongs in the internal packages, and
// commands here only wire flags to them and render results.
package main
