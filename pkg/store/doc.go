// Package store holds the per-form field value store: current values keyed by
// field id, the set of registered (mounted) fields, and change watchers used
// for fine-grained re-evaluation of conditional rules.
package store
