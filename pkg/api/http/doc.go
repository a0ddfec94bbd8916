// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Service information (GET /)
//   - Health checks (GET /health)
//   - Accelerometer data ingestion (POST /accelerometer-data)
//   - Live sample streaming over WebSocket (GET /accelerometer-data/stream)
//   - Prometheus metrics (GET /metrics)
//
// Every error, including unmatched routes and recovered panics, is answered
// with a JSON envelope carrying status, message and timestamp.
package http
