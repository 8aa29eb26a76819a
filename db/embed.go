// Package db provides the embedded database schema and demo dataset.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Dataset is the demo catalogue, customers, staff, orders and reviews as JSON.
//
//go:embed seed/dataset.json
var Dataset []byte
