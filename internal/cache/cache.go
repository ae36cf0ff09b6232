// Package cache is the persistent question-to-answer store. Lookups are
// exact string matches on the question text; writes are upserts, so a new
// answer for a known question replaces the prior one. Entries are only
// written for questions that produced a safe, successfully executed query.
package cache

import "context"

type Store interface {
	// Get returns the cached answer for question and whether one exists.
	Get(ctx context.Context, question string) (string, bool, error)
	// Put stores answer under question, replacing any existing entry.
	Put(ctx context.Context, question, answer string) error
	Close() error
}
