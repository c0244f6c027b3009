// Package database provides PostgreSQL/TimescaleDB connection pools for the
// postgres export collector.
package database
