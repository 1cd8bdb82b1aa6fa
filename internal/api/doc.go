// Package api serves the scoring pipeline over HTTP with gin.
//
// Routes:
//   - POST /api/scan-url        score one URL
//   - POST /api/scan-url/batch  score up to MaxBatchURLs URLs
//   - GET  /api/history         recent scans from the history store
//   - GET  /health              liveness
//   - GET  /ready               readiness of the model and blacklist snapshot
//   - GET  /metrics             Prometheus metrics
//
// The server never mutates pipeline state; it only scores, records history
// and reports readiness.
package api
