// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/models"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, clock *fakeClock, limits map[models.SourceID]Limit) *Limiter {
	t.Helper()
	l, err := New(limits, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func TestAdmitExactlyNWithinWindow(t *testing.T) {
	for _, n := range []int{1, 5, 40} {
		clock := newFakeClock()
		l := newTestLimiter(t, clock, map[models.SourceID]Limit{
			models.SourceTMDB: {Requests: n, Per: time.Second},
		})

		for i := 0; i < n; i++ {
			if !l.Admit(models.SourceTMDB) {
				t.Fatalf("n=%d: admission %d rejected, expected all %d to pass", n, i+1, n)
			}
		}
		if l.Admit(models.SourceTMDB) {
			t.Errorf("n=%d: admission %d should have been rejected", n, n+1)
		}
	}
}

func TestAdmitRefillsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, clock, map[models.SourceID]Limit{
		models.SourceComicVine: {Requests: 200, Per: time.Hour},
	})

	for i := 0; i < 200; i++ {
		l.Admit(models.SourceComicVine)
	}
	if l.Admit(models.SourceComicVine) {
		t.Fatal("expected rejection once budget is exhausted")
	}

	clock.Advance(19 * time.Second) // one token per 18s
	if !l.Admit(models.SourceComicVine) {
		t.Error("expected one token after 19s")
	}
	if l.Admit(models.SourceComicVine) {
		t.Error("expected only one token after 19s")
	}

	clock.Advance(time.Hour)
	admitted := 0
	for i := 0; i < 250; i++ {
		if l.Admit(models.SourceComicVine) {
			admitted++
		}
	}
	if admitted != 200 {
		t.Errorf("expected full bucket of 200 after a window, got %d", admitted)
	}
}

func TestSourcesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, clock, map[models.SourceID]Limit{
		models.SourceTMDB: {Requests: 1, Per: time.Second},
		models.SourceIGDB: {Requests: 1, Per: time.Second},
	})

	if !l.Admit(models.SourceTMDB) || l.Admit(models.SourceTMDB) {
		t.Fatal("unexpected TMDB admissions")
	}
	if !l.Admit(models.SourceIGDB) {
		t.Error("IGDB budget must not be shared with TMDB")
	}
}

func TestUnlimitedSourceAlwaysAdmitted(t *testing.T) {
	l := newTestLimiter(t, newFakeClock(), nil)
	for i := 0; i < 1000; i++ {
		if !l.Admit(models.SourceAniList) {
			t.Fatal("source without a limit must always be admitted")
		}
	}
	if _, ok := l.State(models.SourceAniList); ok {
		t.Error("expected no state for an unlimited source")
	}
}

func TestNewRejectsInvalidLimit(t *testing.T) {
	_, err := New(map[models.SourceID]Limit{models.SourceTMDB: {Requests: 0, Per: time.Second}})
	if err == nil {
		t.Fatal("expected error for zero requests")
	}
}

func TestConcurrentAdmit(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, clock, map[models.SourceID]Limit{
		models.SourceLastFM: {Requests: 10, Per: time.Minute},
	})

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit(models.SourceLastFM) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 10 {
		t.Errorf("expected exactly 10 concurrent admissions, got %d", got)
	}
}

func TestDelayDoesNotConsume(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, clock, map[models.SourceID]Limit{
		models.SourceIGDB: {Requests: 4, Per: time.Second},
	})

	if d := l.Delay(models.SourceIGDB); d != 0 {
		t.Errorf("Delay() = %v, want 0 with a full bucket", d)
	}
	for i := 0; i < 4; i++ {
		if !l.Admit(models.SourceIGDB) {
			t.Fatalf("admission %d rejected after Delay()", i+1)
		}
	}
	if d := l.Delay(models.SourceIGDB); d != 250*time.Millisecond {
		t.Errorf("Delay() = %v, want 250ms", d)
	}
}

func TestWaitExceedingMaxWait(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, clock, map[models.SourceID]Limit{
		models.SourceGoogleBooks: {Requests: 1, Per: time.Minute},
	})
	l.Admit(models.SourceGoogleBooks)

	_, err := l.Wait(context.Background(), models.SourceGoogleBooks, time.Second)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("Wait() error = %v, want ErrLimitExceeded", err)
	}

	clock.Advance(time.Minute)
	if !l.Admit(models.SourceGoogleBooks) {
		t.Error("a refused Wait must not consume the next token")
	}
}

func TestWaitBlocksUntilCapacity(t *testing.T) {
	l, err := New(map[models.SourceID]Limit{
		models.SourceTMDB: {Requests: 1, Per: 20 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Admit(models.SourceTMDB)

	start := time.Now()
	waited, err := l.Wait(context.Background(), models.SourceTMDB, time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if waited <= 0 {
		t.Errorf("expected a positive wait, got %v", waited)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Wait returned too early after %v", elapsed)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l, err := New(map[models.SourceID]Limit{
		models.SourceTMDB: {Requests: 1, Per: time.Minute},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Admit(models.SourceTMDB)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = l.Wait(ctx, models.SourceTMDB, 2*time.Minute)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestState(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, clock, map[models.SourceID]Limit{
		models.SourceTMDB: {Requests: 40, Per: time.Second},
	})
	l.Admit(models.SourceTMDB)

	st, ok := l.State(models.SourceTMDB)
	if !ok {
		t.Fatal("expected state for TMDB")
	}
	if st.Limit != 40 || st.Per != time.Second {
		t.Errorf("State() = %+v", st)
	}
	if st.Tokens != 39 {
		t.Errorf("Tokens = %v, want 39", st.Tokens)
	}
}
