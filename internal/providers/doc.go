// Package providers implements the Generator interface for each supported
// model backend: Google Gemini and Ollama (or any server speaking the
// OpenAI-compatible chat completions API).
//
// Providers share a retry helper with exponential back-off on rate limits
// and 5xx responses; authentication failures are returned immediately and
// can be detected with [IsAuthError]. HTTP clients are fields so that tests
// can redirect calls to local httptest servers without making live API
// requests.
//
// Use [New] to obtain a Generator from a config.Config. Both providers also
// implement [ModelLister].
package providers
