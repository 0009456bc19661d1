// Package topics defines the payload shapes generated for each dashboard page
// and validates them against per-topic JSON schemas.
//
// Every topic has one concrete Go type and one schema (embedded under
// schemas/). Payloads are checked with [Validate] before they are written to
// a topic history, and [Decode] turns raw JSON into the typed value. Topics
// outside the fixed set are rejected with [ErrUnknownTopic].
package topics
