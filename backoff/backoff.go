// Package backoff implements the back-off policies the retry engine pauses
// on between attempts: no-op, fixed, uniform random, exponential, and
// exponential with jitter. Every policy suspends through a sleeper.Sleeper
// rather than calling time.Sleep directly, so tests stay deterministic.
//
// Parameters are modeled as zero-argument suppliers (DurationSupplier /
// MultiplierSupplier) rather than plain values, so a caller can change a
// policy's delay between attempts without disturbing a BackOffContext
// already in flight: the exponential policies read Initial once, at
// Start, to seed the context's interval; every other supplier is read at
// the moment a sleep is actually computed. Const/ConstMultiplier build a
// supplier from a fixed value for the common case.
package backoff

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ravenhollow/retryengine/retry"
	"github.com/ravenhollow/retryengine/sleeper"
)

// DurationSupplier returns the current value of a duration parameter.
type DurationSupplier func() time.Duration

// MultiplierSupplier returns the current value of the exponential multiplier.
type MultiplierSupplier func() float64

// Const returns a DurationSupplier that always returns d.
func Const(d time.Duration) DurationSupplier { return func() time.Duration { return d } }

// ConstMultiplier returns a MultiplierSupplier that always returns m.
func ConstMultiplier(m float64) MultiplierSupplier { return func() float64 { return m } }

func orDefaultSleeper(s sleeper.Sleeper) sleeper.Sleeper {
	if s != nil {
		return s
	}
	return sleeper.Real{}
}

// NoBackOff never pauses. Start returns nil; BackOff returns immediately.
type NoBackOff struct{}

func (NoBackOff) Start(*retry.Context) retry.BackOffContext { return nil }

func (NoBackOff) BackOff(context.Context, retry.BackOffContext) error { return nil }

// Fixed sleeps exactly Period on every call. It is stateless: Start
// always returns nil.
type Fixed struct {
	Period  DurationSupplier
	Sleeper sleeper.Sleeper
}

// NewFixed builds a Fixed back-off with a constant period.
func NewFixed(period time.Duration) Fixed {
	return Fixed{Period: Const(period)}
}

func (f Fixed) Start(*retry.Context) retry.BackOffContext { return nil }

func (f Fixed) BackOff(ctx context.Context, _ retry.BackOffContext) error {
	period := time.Millisecond
	if f.Period != nil {
		if p := f.Period(); p > 0 {
			period = p
		}
	}
	return orDefaultSleeper(f.Sleeper).Sleep(ctx, period)
}

// UniformRandom sleeps Min() plus a uniformly distributed jitter in
// [0, Max()-Min()) on every call, or exactly Min() when Max() <= Min(). It
// is stateless.
type UniformRandom struct {
	Min     DurationSupplier
	Max     DurationSupplier
	Sleeper sleeper.Sleeper
	// Rand, if set, is used instead of the package-level source. Tests can
	// set a seeded *rand.Rand for deterministic bounds checks.
	Rand *rand.Rand
}

// NewUniformRandom builds a UniformRandom back-off with constant bounds.
func NewUniformRandom(min, max time.Duration) UniformRandom {
	return UniformRandom{Min: Const(min), Max: Const(max)}
}

func (u UniformRandom) Start(*retry.Context) retry.BackOffContext { return nil }

func (u UniformRandom) BackOff(ctx context.Context, _ retry.BackOffContext) error {
	min := u.supply(u.Min)
	max := u.supply(u.Max)
	if min < 0 {
		min = 0
	}
	d := min
	if max > min {
		d = min + time.Duration(u.randInt63n(int64(max-min)))
	}
	return orDefaultSleeper(u.Sleeper).Sleep(ctx, d)
}

func (u UniformRandom) supply(s DurationSupplier) time.Duration {
	if s == nil {
		return 0
	}
	return s()
}

func (u UniformRandom) randInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	if u.Rand != nil {
		return u.Rand.Int63n(n)
	}
	return rand.Int63n(n)
}

// exponentialState is the BackOffContext exponential policies hand out via
// Start. It holds the interval that advances by the multiplier on every
// call, serialized so two executions sharing a context (unusual, but
// allowed by the spec) observe monotone progression.
type exponentialState struct {
	mu       sync.Mutex
	interval time.Duration
}

// getSleepAndIncrement returns the duration to sleep for this call and
// advances the stored interval for the next one, per the policy's formula.
func (s *exponentialState) getSleepAndIncrement(multiplier float64, max time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	sleepFor := s.interval
	if sleepFor > max {
		sleepFor = max
	}
	if s.interval < max {
		next := time.Duration(float64(s.interval) * multiplier)
		if next < 0 || next > max {
			next = max
		}
		s.interval = next
	}
	return sleepFor
}

// Exponential sleeps min(interval, Max()) and then grows interval by
// Multiplier() (capped at Max()), starting from Initial().
type Exponential struct {
	Initial    DurationSupplier
	Multiplier MultiplierSupplier
	Max        DurationSupplier
	Sleeper    sleeper.Sleeper
}

// NewExponential builds an Exponential back-off with constant parameters.
func NewExponential(initial time.Duration, multiplier float64, max time.Duration) Exponential {
	return Exponential{Initial: Const(initial), Multiplier: ConstMultiplier(multiplier), Max: Const(max)}
}

func (e Exponential) initial() time.Duration {
	if e.Initial == nil {
		return 100 * time.Millisecond
	}
	if v := e.Initial(); v > 0 {
		return v
	}
	return 100 * time.Millisecond
}

func (e Exponential) multiplier() float64 {
	if e.Multiplier == nil {
		return 1.0
	}
	if v := e.Multiplier(); v >= 1.0 {
		return v
	}
	return 1.0
}

func (e Exponential) max() time.Duration {
	max := time.Duration(0)
	if e.Max != nil {
		max = e.Max()
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	if initial := e.initial(); max < initial {
		max = initial
	}
	return max
}

func (e Exponential) Start(*retry.Context) retry.BackOffContext {
	return &exponentialState{interval: e.initial()}
}

func (e Exponential) BackOff(ctx context.Context, boc retry.BackOffContext) error {
	st, ok := boc.(*exponentialState)
	if !ok || st == nil {
		st = &exponentialState{interval: e.initial()}
	}
	d := st.getSleepAndIncrement(e.multiplier(), e.max())
	return orDefaultSleeper(e.Sleeper).Sleep(ctx, d)
}

// ExponentialWithJitter behaves like Exponential, but the duration actually
// slept is next * (1 + U*(multiplier-1)) for U uniform in [0,1), capped at
// Max(). The stored interval still advances by the deterministic
// multiplier, so expected growth matches the non-jittered policy even
// though any one sample is jittered.
type ExponentialWithJitter struct {
	Initial    DurationSupplier
	Multiplier MultiplierSupplier
	Max        DurationSupplier
	Sleeper    sleeper.Sleeper
	Rand       *rand.Rand
}

// NewExponentialWithJitter builds an ExponentialWithJitter back-off with
// constant parameters.
func NewExponentialWithJitter(initial time.Duration, multiplier float64, max time.Duration) ExponentialWithJitter {
	return ExponentialWithJitter{Initial: Const(initial), Multiplier: ConstMultiplier(multiplier), Max: Const(max)}
}

func (e ExponentialWithJitter) asExponential() Exponential {
	return Exponential{Initial: e.Initial, Multiplier: e.Multiplier, Max: e.Max}
}

func (e ExponentialWithJitter) Start(rc *retry.Context) retry.BackOffContext {
	return e.asExponential().Start(rc)
}

func (e ExponentialWithJitter) BackOff(ctx context.Context, boc retry.BackOffContext) error {
	exp := e.asExponential()
	st, ok := boc.(*exponentialState)
	if !ok || st == nil {
		st = &exponentialState{interval: exp.initial()}
	}
	multiplier, max := exp.multiplier(), exp.max()

	next := st.getSleepAndIncrement(multiplier, max)
	jittered := time.Duration(float64(next) * (1 + e.randFloat64()*(multiplier-1)))
	if jittered > max {
		jittered = max
	}
	if jittered < next {
		jittered = next
	}
	return orDefaultSleeper(e.Sleeper).Sleep(ctx, jittered)
}

func (e ExponentialWithJitter) randFloat64() float64 {
	if e.Rand != nil {
		return e.Rand.Float64()
	}
	return rand.Float64()
}
