package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/ratelimit"
)

func testProfile() ratelimit.Profile {
	return ratelimit.Profile{
		MaxRetries:          5,
		InitialDelay:        10 * time.Millisecond,
		MaxDelay:            100 * time.Millisecond,
		SuccessDecrease:     0.5,
		ErrorIncrease:       2.0,
		SevereErrorIncrease: 4.0,
		SuccessStreak:       2,
	}
}

func TestErrorsNeverExceedMaxDelay(t *testing.T) {
	limiter := ratelimit.NewLimiter(testProfile())
	for i := 0; i < 50; i++ {
		limiter.RecordError()
		if d := limiter.CurrentDelay(); d > 100*time.Millisecond {
			t.Fatalf("delay %s exceeds max after %d errors", d, i+1)
		}
	}
	if d := limiter.CurrentDelay(); d != 100*time.Millisecond {
		t.Fatalf("expected delay pinned at max, got %s", d)
	}
}

func TestSuccessesNeverDropBelowInitialDelay(t *testing.T) {
	limiter := ratelimit.NewLimiter(testProfile())
	limiter.RecordError()
	for i := 0; i < 50; i++ {
		limiter.RecordSuccess()
		if d := limiter.CurrentDelay(); d < 10*time.Millisecond {
			t.Fatalf("delay %s fell below initial after %d successes", d, i+1)
		}
	}
	if d := limiter.CurrentDelay(); d != 10*time.Millisecond {
		t.Fatalf("expected delay pinned at initial, got %s", d)
	}
}

func TestSuccessStreakRequiredForDecrease(t *testing.T) {
	limiter := ratelimit.NewLimiter(testProfile())
	limiter.RecordSevereError() // 40ms
	before := limiter.CurrentDelay()

	limiter.RecordSuccess()
	if limiter.CurrentDelay() != before {
		t.Fatal("delay decreased before the streak threshold")
	}
	limiter.RecordSuccess()
	if limiter.CurrentDelay() >= before {
		t.Fatal("delay did not decrease after reaching the streak threshold")
	}
}

func TestSevereErrorResetsStreak(t *testing.T) {
	limiter := ratelimit.NewLimiter(testProfile())
	limiter.RecordSevereError()
	before := limiter.CurrentDelay()

	limiter.RecordSuccess()
	limiter.RecordSevereError() // resets the streak, grows delay
	limiter.RecordSuccess()
	if limiter.CurrentDelay() < before {
		t.Fatal("streak survived a severe error")
	}
}

func TestWaitSpacesCalls(t *testing.T) {
	profile := testProfile()
	profile.InitialDelay = 30 * time.Millisecond
	limiter := ratelimit.NewLimiter(profile)

	ctx := context.Background()
	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("second call admitted after only %s", elapsed)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	profile := testProfile()
	profile.InitialDelay = 10 * time.Second
	limiter := ratelimit.NewLimiter(profile)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = limiter.Wait(ctx)
	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("expected context error from blocked Wait")
	}
}

func TestRegistrySharesLimiterPerModel(t *testing.T) {
	registry := ratelimit.NewRegistry(map[string]config.RateLimit{
		"imagen": {InitialDelayMillis: 5, MaxDelayMillis: 50},
	})

	a := registry.For("imagen")
	b := registry.For(" Imagen ")
	if a != b {
		t.Fatal("expected one limiter instance per model name")
	}
	if a.Profile().InitialDelay != 5*time.Millisecond {
		t.Fatalf("override not applied: %s", a.Profile().InitialDelay)
	}

	other := registry.For("veo")
	if other == a {
		t.Fatal("distinct models must not share a limiter")
	}
}

func TestConcurrentRecordersAreSafe(t *testing.T) {
	limiter := ratelimit.NewLimiter(testProfile())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				switch (n + j) % 3 {
				case 0:
					limiter.RecordSuccess()
				case 1:
					limiter.RecordError()
				default:
					limiter.RecordSevereError()
				}
			}
		}(i)
	}
	wg.Wait()

	d := limiter.CurrentDelay()
	if d < 10*time.Millisecond || d > 100*time.Millisecond {
		t.Fatalf("delay %s escaped clamp under concurrency", d)
	}
}
