package auction

import (
	"context"
	"errors"

	"github.com/sasha-s/go-csync"
)

// ErrContended is returned when the slot lock could not be acquired before
// the caller's context expired. It is a "try again later" signal, never an
// error condition: nothing was read or written.
var ErrContended = errors.New("auction slot contended")

// Slot is the single shared handle to a channel's auction: nil means no
// auction is running. The command handler and the announcer both hold a
// reference; whoever owns the lock owns the auction. Acquisition is bounded
// by the caller's context so neither side can stall the other indefinitely.
type Slot struct {
	mu  csync.Mutex
	cur *Auction
}

func NewSlot() *Slot {
	return &Slot{}
}

// Update acquires the slot within ctx and runs fn with exclusive access to
// the current auction (nil when absent). Whatever fn returns becomes the new
// slot value, so fn can insert, mutate, or clear in one critical section.
// fn must not block on I/O; compute replies inside, send after Update
// returns.
func (s *Slot) Update(ctx context.Context, fn func(cur *Auction) *Auction) error {
	if err := s.mu.CLock(ctx); err != nil {
		return ErrContended
	}
	defer s.mu.Unlock()

	s.cur = fn(s.cur)
	return nil
}
