// Package repository provides a generic repository over Bun whose writes are
// staged into a shared unit-of-work session, plus entity-specific
// repositories composing named queries for customers, products, and orders.
package repository
