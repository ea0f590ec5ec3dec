// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: base persistence models (BaseModel, TenantModel, TenantAggregateModel)
//   - inventory.go: products, locations, lot positions, movements, label associations
//   - outbound.go: orders, reservations, waves, pick allocations, customer policies
//   - receiving.go: receiving orders, items, divergences
//   - conference.go: conference sessions and their lines
//   - sequence.go: per-day counters
package models
