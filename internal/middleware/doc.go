// Package middleware provides the HTTP middleware of the DeliverUS API.
//
// Every middleware has the Middleware signature and is composed with Chain:
//
//	handler := middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Recovery,
//	    middleware.Logger,
//	    middleware.CORS(origins),
//	)
//
// # Authentication
//
// Auth validates the bearer token and stores a *model.Principal in the
// request context. RequireRole runs after it and rejects callers without the
// required role with 403. Handlers read the caller with GetPrincipal.
//
// # Rate Limiting
//
// RateLimit applies a token bucket per user, or per remote address for
// anonymous requests, and reports X-RateLimit-* headers.
//
// # Idempotency
//
// Idempotency replays the first response for POST requests that repeat an
// Idempotency-Key. Results are kept in memory and, when a ResponseCache is
// configured, in a durable store so replays survive restarts.
package middleware
