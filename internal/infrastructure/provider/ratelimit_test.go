package provider

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLimiterAdmitsFreshSlotsImmediately(t *testing.T) {
	t.Parallel()

	l := NewLimiter(2, time.Second, 10*time.Millisecond)

	for i := 0; i < 2; i++ {
		admitted, wait := l.Reserve(uuid.New())
		if !admitted {
			t.Fatalf("reservation %d: not admitted", i)
		}
		if wait != 0 {
			t.Fatalf("reservation %d: unexpected wait %v for unused slot", i, wait)
		}
	}
}

func TestLimiterBlocksWhileOldestSlotReserved(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, time.Second, 10*time.Millisecond)

	token := uuid.New()
	admitted, _ := l.Reserve(token)
	if !admitted {
		t.Fatal("first reservation refused")
	}

	// The only slot is held by an in-flight call: no capacity decision
	// can be made, callers must poll.
	admitted, wait := l.Reserve(uuid.New())
	if admitted {
		t.Fatal("second caller admitted while slot reserved")
	}
	if wait != 10*time.Millisecond {
		t.Fatalf("expected poll interval, got %v", wait)
	}

	l.Commit(token)
	admitted, wait = l.Reserve(uuid.New())
	if !admitted {
		t.Fatal("caller refused after commit")
	}
	if wait <= 0 || wait > time.Second {
		t.Fatalf("expected wait within (0, window], got %v", wait)
	}
}

func TestLimiterCommitIgnoresUnknownTokens(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, time.Second, 10*time.Millisecond)
	l.Commit(uuid.New()) // no reservation, must be a no-op

	admitted, wait := l.Reserve(uuid.New())
	if !admitted || wait != 0 {
		t.Fatalf("slot state corrupted: admitted=%v wait=%v", admitted, wait)
	}
}

func TestLimiterQuotaOverSlidingWindow(t *testing.T) {
	t.Parallel()

	const (
		quota   = 2
		callers = 6
		window  = 60 * time.Millisecond
	)
	l := NewLimiter(quota, window, 5*time.Millisecond)

	var mu sync.Mutex
	var admissions []time.Time

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := l.Wait(context.Background())
			if err != nil {
				t.Errorf("wait failed: %v", err)
				return
			}
			now := time.Now()
			l.Commit(token)
			mu.Lock()
			admissions = append(admissions, now)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(admissions) != callers {
		t.Fatalf("expected %d admissions, got %d", callers, len(admissions))
	}
	sort.Slice(admissions, func(i, j int) bool { return admissions[i].Before(admissions[j]) })

	// No quota+1 admissions may fall within one window. Allow a little
	// scheduling slack.
	const slack = 10 * time.Millisecond
	for i := 0; i+quota < len(admissions); i++ {
		gap := admissions[i+quota].Sub(admissions[i])
		if gap < window-slack {
			t.Errorf("admissions %d and %d only %v apart, window is %v", i, i+quota, gap, window)
		}
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, time.Second, 20*time.Millisecond)
	token, err := l.Wait(context.Background())
	if err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	// Slot stays reserved; a canceled caller must give up.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := l.Wait(ctx); err == nil {
		t.Fatal("expected context error while slot reserved")
	}

	l.Commit(token)
}
