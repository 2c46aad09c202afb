// Package database manages the Bun connection lifecycle (configuration,
// pooling, health checks, reconnects), schema creation from the model
// registry, query echo hooks, and SQL error classification.
package database
