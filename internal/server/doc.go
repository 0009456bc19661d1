// Package server exposes the dashboard over a JSON HTTP API.
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/pages
//	GET  /api/reference/{dataset}
//	GET  /api/aircraft/{id}
//	POST /api/ai/{topic}?fresh=true&aircraft=c172
//	GET  /api/ai/{topic}/history
//
// Every response carries an X-Request-ID header. A generation that produced
// nothing is still a 200 with "available": false.
package server
