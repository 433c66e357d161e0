// Package gateway orchestrates the journal-gateway server components.
//
// # Overview
//
// The Gateway owns the store, the HTTP server carrying the journal API and
// a small gRPC server that only speaks grpc.health.v1. New opens the
// configured SQLite database; NewWithStore accepts any store.Store, which is
// how tests run the full stack against store.MockStore.
//
// # Listeners
//
// Without Tailscale, the HTTP API listens on server.http_addr and gRPC on
// server.grpc_addr (skipped when empty). With tailscale.enabled, both move
// onto a tsnet node: gRPC on :50051 and HTTP on :80, :443 with tailnet
// certificates, or :443 through Funnel.
//
// # Health
//
//   - GET /health - Liveness check, always "OK"
//   - GET /health/ready - 200 when the store answers a ping, 503 otherwise
//   - grpc.health.v1.Health/Check for service "journal.Gateway"
//
// # Lifecycle
//
// Run blocks until its context is canceled or a server fails, then calls
// Shutdown with a fresh five second deadline. Shutdown flips gRPC health to
// NOT_SERVING, drains both servers, stops tsnet and closes the store.
package gateway
