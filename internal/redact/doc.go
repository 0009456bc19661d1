// Package redact removes credentials from text before it is logged, shown in
// the CLI or returned over the HTTP API.
//
// Detection uses regex heuristics covering Google API keys, key= query
// parameters, x-goog-api-key and Authorization header echoes, bearer tokens,
// JWTs and generic secret assignments. [Mask] hides a configured key for
// display.
package redact
