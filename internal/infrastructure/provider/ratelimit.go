package provider

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type slotState int

const (
	slotUnused slotState = iota
	slotReserved
	slotUsed
)

// slot is one entry of the admission table. A reserved slot belongs to
// an in-flight call; a used slot carries the completion time of the
// last call it admitted.
type slot struct {
	key   uuid.UUID
	state slotState
	at    time.Time
}

// Limiter admits at most quota provider calls per window. Admission is
// a two-phase handshake: Reserve takes the oldest slot out of rotation
// under the caller's token before the call is made, and Commit stamps
// it with the completion time afterwards. Without the reservation two
// concurrent callers could both count the same slot as free.
type Limiter struct {
	mu     sync.Mutex
	slots  []*slot
	byKey  map[uuid.UUID]*slot
	window time.Duration
	poll   time.Duration
}

// NewLimiter creates a limiter for the given per-window quota. poll is
// how long a caller backs off when the oldest slot is still reserved.
func NewLimiter(quota int, window, poll time.Duration) *Limiter {
	if quota < 1 {
		quota = 1
	}
	l := &Limiter{
		byKey:  make(map[uuid.UUID]*slot, quota),
		window: window,
		poll:   poll,
	}
	for i := 0; i < quota; i++ {
		l.slots = append(l.slots, &slot{})
	}
	return l
}

// Reserve inspects the oldest slot. If it is reserved by another
// caller, no capacity decision is made yet: the caller must back off
// for the returned poll interval and try again. Otherwise the slot is
// re-keyed under token and reserved, and the returned duration is how
// long the caller must wait before its admission window opens (zero
// when the slot's last use is old enough).
func (l *Limiter) Reserve(token uuid.UUID) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	oldest := l.slots[0]
	if oldest.state == slotReserved {
		return false, l.poll
	}

	var wait time.Duration
	if oldest.state == slotUsed {
		if remaining := time.Until(oldest.at.Add(l.window)); remaining > 0 {
			wait = remaining
		}
	}

	l.slots = append(l.slots[1:], oldest)
	delete(l.byKey, oldest.key)
	oldest.key = token
	oldest.state = slotReserved
	oldest.at = time.Time{}
	l.byKey[token] = oldest

	return true, wait
}

// Commit records the completion time for a reserved slot, returning it
// to normal rotation. Unknown or already-committed tokens are ignored.
func (l *Limiter) Commit(token uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.byKey[token]
	if !ok || s.state != slotReserved {
		return
	}
	s.state = slotUsed
	s.at = time.Now()
}

// Wait blocks until the caller is admitted and returns the reservation
// token to Commit once the call completes.
func (l *Limiter) Wait(ctx context.Context) (uuid.UUID, error) {
	token := uuid.New()
	for {
		admitted, wait := l.Reserve(token)
		if admitted {
			if wait > 0 {
				if err := sleep(ctx, wait); err != nil {
					l.Commit(token)
					return uuid.Nil, err
				}
			}
			return token, nil
		}
		if err := sleep(ctx, wait); err != nil {
			return uuid.Nil, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
