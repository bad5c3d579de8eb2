// Package store defines the persistence interfaces the application depends
// on, the DBTX abstraction shared by connections and transactions, and the
// sentinel errors store implementations return. Concrete implementations
// live in internal/platform/postgres.
package store
