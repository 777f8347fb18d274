// Package services defines shared utilities consumed by the pipeline stages
// and the provider integration.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, chunk indices, stage names, and
//     credential labels for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (validation, exhausted credentials, tool errors) with errors.Is.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
