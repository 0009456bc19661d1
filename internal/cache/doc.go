// Package cache provides the prompt-keyed response cache behind every AI
// enhancement.
//
// Entries are keyed by a SHA-256 fingerprint of the prompt and its context.
// Each entry stores the raw generator output with a creation timestamp; an
// entry older than the configured TTL is regenerated on the next Fetch and
// overwritten in place. Generator failures are soft: Fetch reports them in
// [Result.Err] and leaves the store untouched.
//
// Every topic (one per dashboard page) also keeps a history of its five most
// recent generated results, newest first, written atomically.
//
// Two backends implement [Store]: [FileStore] (one JSON file per key, the
// default, under $XDG_CACHE_HOME/cadetprep) and [SQLiteStore].
package cache
