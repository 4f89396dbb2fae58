package store

import (
	"sync"
	"time"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
)

// Seat records who holds master authority and the grace period left by a departed master.
type Seat struct {
	masterID *domain.ConnectionID
	token    string
	grace    *domain.GracePeriod
	mu       *sync.RWMutex
}

func NewSeat() *Seat {
	return &Seat{mu: &sync.RWMutex{}}
}

func (s *Seat) State() domain.SeatState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := domain.SeatState{Token: s.token}
	if s.masterID != nil {
		id := *s.masterID
		state.MasterID = &id
	}
	if s.grace != nil {
		grace := *s.grace
		state.Grace = &grace
	}
	return state
}

// Hold hands the seat to id. Any grace period is dropped since a held seat never has one.
func (s *Seat) Hold(id domain.ConnectionID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterID = &id
	s.token = token
	s.grace = nil
}

func (s *Seat) Vacate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterID = nil
	s.token = ""
	s.grace = nil
}

func (s *Seat) IsMaster(id domain.ConnectionID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.masterID != nil && *s.masterID == id
}

// InstallGrace vacates the seat and keeps token redeemable until expiry.
func (s *Seat) InstallGrace(token string, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterID = nil
	s.token = ""
	s.grace = &domain.GracePeriod{Token: token, ExpiresAt: expiry}
}

func (s *Seat) ClearGrace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grace = nil
}

// TryConsumeGrace removes the grace period if token matches it and it has not expired at now.
func (s *Seat) TryConsumeGrace(token string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grace == nil || token == "" || s.grace.Token != token || !now.Before(s.grace.ExpiresAt) {
		return false
	}
	s.grace = nil
	return true
}
