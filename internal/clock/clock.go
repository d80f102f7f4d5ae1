// Package clock wraps github.com/jmhodges/clock so the signer and validator
// can be driven by a fake clock in tests, the same way the teacher's CA
// issuance tests pin time.
package clock

import (
	"time"

	"github.com/jmhodges/clock"
)

func secondsToTime(epochSeconds int64) time.Time {
	return time.Unix(epochSeconds, 0).UTC()
}

func durationSeconds(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}

// Clock is the collaborator interface spec §6.4 requires of the core: a
// single now() operation returning seconds since the epoch.
type Clock interface {
	Now() int64
}

// real adapts jmhodges/clock.Clock (nanosecond time.Time) to the
// seconds-since-epoch Clock the certificate core consumes.
type real struct {
	c clock.Clock
}

// New returns a Clock backed by the real wall clock.
func New() Clock {
	return &real{c: clock.New()}
}

func (r *real) Now() int64 {
	return r.c.Now().Unix()
}

// NewFake returns a Clock backed by jmhodges/clock's fake, for tests that
// need to pin notBefore/notAfter or exercise the MIN_TIME_VALUE sanity
// floor (spec §4.5 step 3).
func NewFake(epochSeconds int64) *Fake {
	f := clock.NewFake()
	f.Set(secondsToTime(epochSeconds))
	return &Fake{f: f}
}

// Fake is a settable Clock for deterministic signer/validator tests.
type Fake struct {
	f *clock.Fake
}

func (f *Fake) Now() int64 {
	return f.f.Now().Unix()
}

// Set moves the fake clock to the given epoch time.
func (f *Fake) Set(epochSeconds int64) {
	f.f.Set(secondsToTime(epochSeconds))
}

// Add advances the fake clock by the given number of seconds.
func (f *Fake) Add(seconds int64) {
	f.f.Add(durationSeconds(seconds))
}
