package runner

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces exchange admissions. admit blocks until the caller's slot
// comes up or ctx ends. Concurrent callers are given distinct slots.
type pacer interface {
	admit(ctx context.Context) error
}

func newPacer(opt Options) pacer {
	if opt.RatePerSecond <= 0 {
		return unpaced{}
	}
	if opt.ArrivalModel == ArrivalModelPoisson {
		sample := opt.PoissonSampler
		if sample == nil {
			sample = rand.New(rand.NewSource(opt.RandomSeed)).ExpFloat64
		}
		return &poissonPacer{rate: float64(opt.RatePerSecond), sample: sample, now: time.Now}
	}
	return uniformPacer{limiter: opt.LimiterFactory(opt.RatePerSecond)}
}

type unpaced struct{}

func (unpaced) admit(ctx context.Context) error { return ctx.Err() }

// uniformPacer admits at a fixed rate with a burst of one second's worth.
type uniformPacer struct {
	limiter *rate.Limiter
}

func (u uniformPacer) admit(ctx context.Context) error {
	return u.limiter.Wait(ctx)
}

// poissonPacer draws exponential gaps between admission slots. Slots are
// reserved under the lock and waited for outside it, so a backlog of
// exchanges queues up behind one schedule. Idle time is not banked: the
// next slot after a quiet period is measured from now.
type poissonPacer struct {
	rate   float64
	sample func() float64
	now    func() time.Time

	mu   sync.Mutex
	last time.Time
}

func (p *poissonPacer) admit(ctx context.Context) error {
	wait := time.Until(p.reserve())
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reserve returns the admission time of the next exchange.
func (p *poissonPacer) reserve() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	base := p.last
	if now := p.now(); base.Before(now) {
		base = now
	}
	p.last = base.Add(p.gap())
	return p.last
}

func (p *poissonPacer) gap() time.Duration {
	gap := float64(time.Second) * p.sample() / p.rate
	if gap > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(gap)
}
