package domain

import (
	"context"
)

// StateRepository loads and stores the scoreboard. Load returns nil without error when nothing
// has been stored yet.
type StateRepository interface {
	Load(ctx context.Context) (*Scoreboard, error)
	Save(ctx context.Context, board Scoreboard) error
}

type PersistenceStats struct {
	Saved  uint64 `json:"saved"`
	Failed uint64 `json:"failed"`
}

type StatsProvider interface {
	Stats() PersistenceStats
}

// Saver accepts a record for background persistence and never blocks the caller.
type Saver interface {
	Enqueue(board Scoreboard)
}
