// Package refdata holds the static reference datasets shown on the
// dashboard pages: the airline fleet and route network, the aviation
// dictionary, the history timeline, curated news, future-of-aviation topics
// and the training aircraft.
//
// The datasets are YAML files embedded in the binary and parsed once on
// first use.
package refdata
