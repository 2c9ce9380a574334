// Package store keeps loaded datasets between requests.
//
// A Dataset is the derived ticket table of one upload plus the filter options
// computed from it. Datasets are immutable once stored; every report re-reads
// the same table.
//
// Two backends implement Store:
//
//	MemoryStore  process-local map with TTL expiry and a janitor goroutine
//	RedisStore   JSON documents in Redis with native key expiry
//
// Use New to pick a backend from configuration.
package store
