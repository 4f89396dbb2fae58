package store

import (
	"sync"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
)

// Record is the last-writer-wins holder of the scoreboard.
type Record struct {
	board *domain.Scoreboard
	mu    *sync.RWMutex
}

func NewRecord() *Record {
	return &Record{mu: &sync.RWMutex{}}
}

func (r *Record) Current() (domain.Scoreboard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.board == nil {
		return domain.Scoreboard{}, false
	}
	return *r.board, true
}

func (r *Record) Set(board domain.Scoreboard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.board = &board
}

// Commit replaces the record and runs onCommit before releasing the write lock, so readers
// going through Read observe the new value only together with its side effects.
func (r *Record) Commit(board domain.Scoreboard, onCommit func(board domain.Scoreboard)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.board = &board
	if onCommit != nil {
		onCommit(board)
	}
}

// Read calls fn with the current record while holding the read lock.
func (r *Record) Read(fn func(board domain.Scoreboard, ok bool)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.board == nil {
		fn(domain.Scoreboard{}, false)
		return
	}
	fn(*r.board, true)
}
