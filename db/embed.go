// Package db embeds the database schema applied on startup.
package db

import _ "embed"

// Schema holds the idempotent DDL for the basket, discount, and order
// tables. Both binaries apply it before serving.
//
//go:embed migrations/001_schema.sql
var Schema string
