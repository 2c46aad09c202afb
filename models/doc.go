// Package models defines the persisted entity types (Product, Customer,
// Order, OrderItem) with their audit fields, relations, and validation rules.
package models
