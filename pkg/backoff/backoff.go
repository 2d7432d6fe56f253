package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Default policy parameters.
const (
	DefaultInitialDelay = 100 * time.Millisecond
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 2.0
)

// Policy computes reconnect delays with exponential growth and jitter.
// It is not safe for concurrent use; each connection loop owns one.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	attempt int
	// randFloat returns a value in [0,1); overridable in tests.
	randFloat func() float64
}

// NewPolicy returns a Policy with the default parameters.
func NewPolicy() *Policy {
	return &Policy{
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// NextDelay returns the next backoff delay and advances the attempt counter.
// The delay is min(initial * multiplier^attempt, max) plus uniform jitter in
// [0, 0.1*delay].
func (p *Policy) NextDelay() time.Duration {
	base := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(p.attempt))
	capped := math.Min(base, float64(p.MaxDelay))
	jitter := capped * 0.1 * p.rand()
	p.attempt++
	return time.Duration(capped + jitter)
}

// Reset clears the attempt counter. Call after a successful handshake.
func (p *Policy) Reset() { p.attempt = 0 }

// Attempt returns the number of delays handed out since the last reset.
func (p *Policy) Attempt() int { return p.attempt }

func (p *Policy) rand() float64 {
	if p.randFloat != nil {
		return p.randFloat()
	}
	return rand.Float64()
}
