// Package credentials tracks the API keys available to a run, their remaining
// character quota, and which of them the provider has rejected.
//
// Selection is deterministic: the first credential in configured order with a
// known quota covering the request wins. Quota is only decremented after the
// provider confirms a synthesis, so failed attempts never consume it.
package credentials
