// ABOUTME: Registers the cgo SQLite driver as an alternative to the pure-Go default
// ABOUTME: Selected with database.driver: "sqlite3" in the gateway config

package store

import (
	_ "github.com/mattn/go-sqlite3"
)
