// Package config manages application configuration for the DeliverUS API.
//
// Configuration comes from environment variables. A .env file in the
// working directory is loaded first when present:
//
//	cfg, err := config.Load()
//	if err == nil {
//	    err = cfg.Validate()
//	}
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS)
//   - LogConfig: slog level
//   - DatabaseConfig: store driver and SurrealDB connection settings
//   - BadgerConfig: embedded store directory and GC interval
//   - JWTConfig: JWT signing and validation settings
//   - RateLimitConfig, IdempotencyConfig: request middleware settings
//
// # Environment Variables
//
//	SERVER_PORT          - HTTP server port (default: 8080)
//	LOG_LEVEL            - debug, info, warn or error (default: info)
//	DB_DRIVER            - surrealdb or badger (default: surrealdb)
//	DB_HOST, DB_PORT     - SurrealDB address
//	DB_NAMESPACE         - SurrealDB namespace
//	DB_DATABASE          - SurrealDB database
//	DB_MIGRATE           - apply migrations on start (default: true)
//	BADGER_DIR           - Badger data directory
//	BADGER_IN_MEMORY     - keep Badger data in memory only
//	JWT_PUBLIC_KEY_PATH  - RSA public key used to verify tokens
//	RATE_LIMIT_RATE      - requests per window per caller
//	IDEMPOTENCY_TTL      - how long POST responses are replayable
package config
