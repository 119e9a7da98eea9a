package ratelimit

import (
	"context"
	"sync"
	"time"

	"storyreel/internal/config"
)

// Profile describes the adaptive pacing parameters for one model.
type Profile struct {
	MaxRetries          int
	InitialDelay        time.Duration
	MaxDelay            time.Duration
	SuccessDecrease     float64
	ErrorIncrease       float64
	SevereErrorIncrease float64
	SuccessStreak       int
}

// DefaultProfile returns the pacing parameters used when no override exists.
func DefaultProfile() Profile {
	return Profile{
		MaxRetries:          5,
		InitialDelay:        time.Second,
		MaxDelay:            time.Minute,
		SuccessDecrease:     0.9,
		ErrorIncrease:       1.5,
		SevereErrorIncrease: 2.0,
		SuccessStreak:       3,
	}
}

// ProfileFromConfig converts a config override into a Profile, filling gaps
// from the defaults.
func ProfileFromConfig(override config.RateLimit) Profile {
	profile := DefaultProfile()
	if override.MaxRetries > 0 {
		profile.MaxRetries = override.MaxRetries
	}
	if override.InitialDelayMillis > 0 {
		profile.InitialDelay = time.Duration(override.InitialDelayMillis) * time.Millisecond
	}
	if override.MaxDelayMillis > 0 {
		profile.MaxDelay = time.Duration(override.MaxDelayMillis) * time.Millisecond
	}
	if override.SuccessDecrease > 0 {
		profile.SuccessDecrease = override.SuccessDecrease
	}
	if override.ErrorIncrease > 0 {
		profile.ErrorIncrease = override.ErrorIncrease
	}
	if override.SevereErrorIncrease > 0 {
		profile.SevereErrorIncrease = override.SevereErrorIncrease
	}
	if override.SuccessStreak > 0 {
		profile.SuccessStreak = override.SuccessStreak
	}
	return profile
}

// Limiter is the single point of admission for one model name. All mutation
// of the adaptive delay and streak counters happens under the mutex because
// many scene workers share one limiter.
type Limiter struct {
	mu sync.Mutex

	profile      Profile
	currentDelay time.Duration
	successRun   int
	lastPermit   time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewLimiter constructs a limiter starting at the profile's initial delay.
func NewLimiter(profile Profile) *Limiter {
	if profile.InitialDelay <= 0 {
		profile.InitialDelay = DefaultProfile().InitialDelay
	}
	if profile.MaxDelay < profile.InitialDelay {
		profile.MaxDelay = profile.InitialDelay
	}
	return &Limiter{
		profile:      profile,
		currentDelay: profile.InitialDelay,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// Wait blocks until the current adaptive delay has elapsed since the last
// permitted call for this model, or until ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	var wait time.Duration
	if !l.lastPermit.IsZero() {
		ready := l.lastPermit.Add(l.currentDelay)
		if ready.After(now) {
			wait = ready.Sub(now)
		}
	}
	l.lastPermit = now.Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return l.sleep(ctx, wait)
}

// RecordSuccess shrinks the delay after the configured streak of consecutive
// successes, clamped to the initial delay.
func (l *Limiter) RecordSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.successRun++
	if l.successRun < l.profile.SuccessStreak {
		return
	}
	l.successRun = 0
	l.currentDelay = clamp(
		time.Duration(float64(l.currentDelay)*l.profile.SuccessDecrease),
		l.profile.InitialDelay,
		l.profile.MaxDelay,
	)
}

// RecordError grows the delay and breaks the success streak.
func (l *Limiter) RecordError() {
	l.applyIncrease(l.profile.ErrorIncrease)
}

// RecordSevereError applies the steeper increase used for 429/503 responses.
func (l *Limiter) RecordSevereError() {
	l.applyIncrease(l.profile.SevereErrorIncrease)
}

func (l *Limiter) applyIncrease(ratio float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.successRun = 0
	l.currentDelay = clamp(
		time.Duration(float64(l.currentDelay)*ratio),
		l.profile.InitialDelay,
		l.profile.MaxDelay,
	)
}

// CurrentDelay reports the adaptive delay for observability.
func (l *Limiter) CurrentDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentDelay
}

// Profile returns the limiter's pacing parameters.
func (l *Limiter) Profile() Profile {
	return l.profile
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
