// Package server implements the HTTP API: the POST /api/makeCall endpoint
// for outbound calls plus health, configuration and Prometheus endpoints.
package server
