// Package config handles configuration loading for journal-gateway.
//
// # Overview
//
// Configuration is loaded from a YAML file, or a TOML file when the path ends
// in .toml, with environment variable expansion, defaults and validation.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from JOURNAL_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/journal/gateway.yaml
//  3. ~/.config/journal/gateway.yaml
//
// JOURNAL_DB_PATH, when set, replaces database.path.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${JOURNAL_JWT_SECRET}"
//
// Unset variables expand to the empty string.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "localhost:3000"   # REST API (default)
//	  grpc_addr: "localhost:50051"  # grpc.health.v1 only, optional
//	  cors_origins: ["*"]
//
//	database:
//	  driver: "sqlite"              # sqlite (pure Go) or sqlite3 (cgo)
//	  path: "~/.local/share/journal/gateway.db"
//
//	auth:
//	  jwt_secret: "${JOURNAL_JWT_SECRET}"  # at least 32 bytes
//	  bcrypt_cost: 10
//	  token_ttl: ""                        # empty: tokens live until logout
//
//	tailscale:
//	  enabled: false
//	  hostname: "journal"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: true
//	  funnel: false
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// The TOML form uses the same section and key names.
package config
