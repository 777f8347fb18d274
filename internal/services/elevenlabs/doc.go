// Package elevenlabs wraps the speech synthesis and account endpoints of the
// ElevenLabs HTTP API.
//
// Every call makes exactly one request. Failures come back as *Failure so the
// caller can tell a rejected key from a transient or provider-side error and
// fail over to another credential; the client itself never retries.
package elevenlabs
