// Package mocks provides centralized mock implementations for testing.
//
// Each mock implements a store or service interface with two layers: function
// fields for per-test overrides, and a map-backed in-memory default that
// mirrors the persistence semantics closely enough for engine, scheduler, and
// bundler tests to run without a database.
package mocks
