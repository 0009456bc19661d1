// Package assistant generates supplementary AI content for the dashboard
// pages.
//
// Each topic has a fixed prompt whose context is built from the reference
// datasets, so a response is only reused while the underlying data is
// unchanged. Responses go through the response cache, are parsed and
// checked against the topic's schema (with one repair request when they do
// not match), and every usable result is appended to the topic's history.
//
// Generation problems never surface as errors. A Result with Available
// false carries a short, redacted explanation instead.
package assistant
