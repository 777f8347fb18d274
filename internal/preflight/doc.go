// Package preflight provides readiness checks for the external tools,
// filesystem paths, and provider credentials that voicereel depends on.
//
// These checks run in two contexts:
//   - `voicereel run` calls RunAll before touching the network. If any check
//     fails, the run stops before a single character of quota is spent.
//   - `voicereel doctor` adds CheckCredentials and renders every result.
package preflight
