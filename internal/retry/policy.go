package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// Policy decides how many times a failed connection attempt is repeated and
// how long to wait in between. The zero value never retries.
type Policy struct {
	// Retries is the number of attempts after the first one.
	Retries int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Jitter of 0.1 scales each delay by a random factor in [0.9, 1.1).
	Jitter float64

	// Rand returns values in [0, 1); nil means math/rand.
	Rand func() float64
}

// DefaultPolicy is the policy used for the models database.
func DefaultPolicy() Policy {
	return Policy{
		Retries:      mokka.DefaultRetryMaxAttempts,
		InitialDelay: mokka.DefaultRetryInitialDelay,
		MaxDelay:     mokka.DefaultRetryMaxDelay,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// FromFlag applies the --retries convention to DefaultPolicy:
// 0 keeps the default count, a negative value disables retry.
func FromFlag(retries int) Policy {
	p := DefaultPolicy()
	switch {
	case retries < 0:
		p.Retries = 0
	case retries > 0:
		p.Retries = retries
	}
	return p
}

// Delay returns the wait before retry number attempt (zero-indexed):
// InitialDelay * Multiplier^attempt, capped at MaxDelay, then jittered.
func (p Policy) Delay(attempt int) time.Duration {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(p.InitialDelay) * math.Pow(multiplier, float64(attempt))
	if p.MaxDelay > 0 && (delay > float64(p.MaxDelay) || math.IsInf(delay, 0)) {
		delay = float64(p.MaxDelay)
	}

	if p.Jitter > 0 {
		random := p.Rand
		if random == nil {
			random = rand.Float64
		}
		offset := (random() - 0.5) * 2.0 // [0,1) -> [-1,1)
		delay *= 1.0 + p.Jitter*offset
	}

	return time.Duration(delay)
}
