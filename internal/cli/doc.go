// Package cli wires together the Cobra command tree for the cadetprep binary.
//
// It defines the root command and all subcommands (serve, ai, ref, cache,
// config, models, version), binds flags, reads configuration, builds the
// assistant on top of the configured cache backend, and maps outcomes to
// exit codes: 0 success, 2 usage error, 3 auth error, 4 runtime error.
package cli
