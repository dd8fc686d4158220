package circuitbreaker

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Breaker is a consecutive-failure circuit breaker guarding one news
// provider. After Threshold consecutive failures the breaker opens for
// Cooldown; while open, Allow returns false and the aggregator skips the
// provider entirely (identical observable behavior to a failing provider).
// After the cooldown one probe call is allowed through; its outcome
// either closes the breaker or re-opens it.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool
}

// Config holds circuit breaker configuration.
type Config struct {
	Name      string
	Threshold int
	Cooldown  time.Duration
	Logger    *zap.Logger
}

// New creates a new breaker with the given configuration.
func New(cfg *Config) (*Breaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive")
	}
	if cfg.Cooldown <= 0 {
		return nil, fmt.Errorf("cooldown must be positive")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	BreakerState.WithLabelValues(cfg.Name).Set(0)

	return &Breaker{
		name:      cfg.Name,
		threshold: cfg.Threshold,
		cooldown:  cfg.Cooldown,
		logger:    cfg.Logger,
	}, nil
}

// Allow reports whether a call may proceed. While open, it returns false
// until the cooldown elapses, then lets a single probe through in
// half-open state.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}

	if time.Since(b.openedAt) < b.cooldown {
		return false
	}

	// Half-open: allow one probe. Reset openedAt so concurrent callers
	// during the probe window stay blocked until the probe resolves.
	b.openedAt = time.Now()
	b.logger.Debug("breaker-half-open", zap.String("provider", b.name))
	return true
}

// RecordSuccess resets the failure count and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open {
		b.logger.Info("breaker-closed", zap.String("provider", b.name))
		BreakerState.WithLabelValues(b.name).Set(0)
	}
	b.open = false
	b.failures = 0
}

// RecordFailure increments the consecutive-failure count and opens the
// breaker once the threshold is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.failures < b.threshold && !b.open {
		return
	}

	if !b.open {
		BreakerTripsTotal.WithLabelValues(b.name).Inc()
		b.logger.Warn("breaker-opened",
			zap.String("provider", b.name),
			zap.Int("consecutive-failures", b.failures),
			zap.Duration("cooldown", b.cooldown))
	}
	b.open = true
	b.openedAt = time.Now()
	BreakerState.WithLabelValues(b.name).Set(1)
}

// IsOpen reports the current state, for status endpoints and tests.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open && time.Since(b.openedAt) < b.cooldown
}
