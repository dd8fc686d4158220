package circuitbreaker

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestBreaker(t *testing.T, threshold int, cooldown time.Duration) *Breaker {
	t.Helper()

	b, err := New(&Config{
		Name:      "test-provider",
		Threshold: threshold,
		Cooldown:  cooldown,
		Logger:    zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("create breaker: %v", err)
	}
	return b
}

func TestNew_Validation(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil-config", nil},
		{"empty-name", &Config{Threshold: 3, Cooldown: time.Minute, Logger: logger}},
		{"zero-threshold", &Config{Name: "p", Cooldown: time.Minute, Logger: logger}},
		{"zero-cooldown", &Config{Name: "p", Threshold: 3, Logger: logger}},
		{"nil-logger", &Config{Name: "p", Threshold: 3, Cooldown: time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := newTestBreaker(t, 3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	if !b.Allow() {
		t.Fatal("breaker should stay closed below threshold")
	}

	b.RecordFailure()
	if b.Allow() {
		t.Error("breaker should be open after threshold failures")
	}
	if !b.IsOpen() {
		t.Error("IsOpen should report true")
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b := newTestBreaker(t, 3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	if !b.Allow() {
		t.Error("success should have reset the consecutive-failure count")
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	b := newTestBreaker(t, 1, 50*time.Millisecond)

	b.RecordFailure()
	if b.Allow() {
		t.Fatal("expected breaker open")
	}

	time.Sleep(80 * time.Millisecond)

	// First call after cooldown is the probe.
	if !b.Allow() {
		t.Fatal("expected half-open probe to be allowed")
	}
	// A second caller during the probe window stays blocked.
	if b.Allow() {
		t.Error("expected only one probe per cooldown window")
	}

	// Probe success closes the breaker.
	b.RecordSuccess()
	if !b.Allow() {
		t.Error("expected breaker closed after successful probe")
	}
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	b := newTestBreaker(t, 1, 50*time.Millisecond)

	b.RecordFailure()
	time.Sleep(80 * time.Millisecond)

	if !b.Allow() {
		t.Fatal("expected probe allowed")
	}
	b.RecordFailure()

	if b.Allow() {
		t.Error("expected breaker re-opened after failed probe")
	}
}
