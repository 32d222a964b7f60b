package backoff

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrInvalidJitter is returned when jitter bounds are negative or inverted.
var ErrInvalidJitter = errors.New("invalid jitter bounds")

// Jitter is a closed interval [Min, Max] from which delays are drawn uniformly.
type Jitter struct {
	// Min is the shortest delay that may be drawn.
	Min time.Duration `yaml:"min"`

	// Max is the longest delay that may be drawn.
	Max time.Duration `yaml:"max"`
}

// Between builds a Jitter from two bounds.
func Between(lo, hi time.Duration) Jitter {
	return Jitter{Min: lo, Max: hi}
}

// NoDelay returns a Jitter that always draws zero.
func NoDelay() Jitter {
	return Jitter{}
}

// Validate reports whether the bounds are usable.
func (j Jitter) Validate() error {
	if j.Min < 0 || j.Max < 0 {
		return fmt.Errorf("%w: negative bound in [%s, %s]", ErrInvalidJitter, j.Min, j.Max)
	}
	if j.Max < j.Min {
		return fmt.Errorf("%w: max %s is below min %s", ErrInvalidJitter, j.Max, j.Min)
	}
	return nil
}

// IsZero reports whether the jitter always draws zero.
func (j Jitter) IsZero() bool {
	return j.Min == 0 && j.Max == 0
}

// Contains reports whether d lies within the bounds.
func (j Jitter) Contains(d time.Duration) bool {
	return d >= j.Min && d <= j.Max
}

// Draw returns a duration drawn uniformly from [Min, Max].
// A nil source falls back to the package-level generator.
func (j Jitter) Draw(r *rand.Rand) time.Duration {
	span := int64(j.Max - j.Min)
	if span <= 0 {
		return j.Min
	}
	var n int64
	if r == nil {
		n = rand.Int64N(span + 1)
	} else {
		n = r.Int64N(span + 1)
	}
	return j.Min + time.Duration(n)
}

// String renders the bounds, for example "[10s, 20s]".
func (j Jitter) String() string {
	return fmt.Sprintf("[%s, %s]", j.Min, j.Max)
}
