// Package poller keeps open views fresh by re-fetching on a fixed cadence.
//
// Every fetch takes a sequence number when it starts. A completed fetch is
// applied only if its number is greater than that of the snapshot currently
// held, so a slow response can never overwrite a newer one.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is the latest applied result. After a failed fetch Err is set and
// Data still holds the last successful result, if any.
type Snapshot[T any] struct {
	Data      T
	Err       error
	Seq       uint64
	FetchedAt time.Time
	HasData   bool
}

type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	log      *logrus.Entry
	now      func() time.Time

	issued atomic.Uint64

	mu      sync.Mutex
	snap    Snapshot[T]
	subs    map[chan Snapshot[T]]struct{}
	running bool
	ctx     context.Context
	cancel  context.CancelFunc

	// loop plus out-of-band fetches
	wg sync.WaitGroup
}

func New[T any](name string, interval time.Duration, fetch FetchFunc[T], log *logrus.Entry) *Poller[T] {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		log:      log.WithFields(logrus.Fields{"component": "poller", "view": name}),
		now:      time.Now,
		subs:     map[chan Snapshot[T]]struct{}{},
	}
}

func (p *Poller[T]) Name() string { return p.name }

func (p *Poller[T]) Interval() time.Duration { return p.interval }

// Start fetches immediately and then once per interval until ctx is done or
// Stop is called. Starting a running poller does nothing.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	p.wg.Add(1)
	go p.loop(p.ctx)
}

func (p *Poller[T]) loop(ctx context.Context) {
	defer p.wg.Done()
	p.fetchOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Runs inline: a fetch that hangs holds back the next one.
			p.fetchOnce(ctx)
		}
	}
}

// Stop cancels the schedule and any fetch in flight, waits for them to
// return and closes every subscription.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	for ch := range p.subs {
		close(ch)
		delete(p.subs, ch)
	}
	p.mu.Unlock()
	p.log.Debug("poller stopped")
}

func (p *Poller[T]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// RefreshNow starts a fetch outside the schedule and returns at once. It is
// a no-op on a stopped poller.
func (p *Poller[T]) RefreshNow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	ctx := p.ctx
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.fetchOnce(ctx)
	}()
}

// Refresh fetches synchronously and reports whether the result was applied.
// It works on a stopped poller too.
func (p *Poller[T]) Refresh(ctx context.Context) (Snapshot[T], bool) {
	seq := p.issued.Add(1)
	data, err := p.fetch(ctx)
	applied := p.apply(seq, data, err)
	return p.Snapshot(), applied
}

func (p *Poller[T]) fetchOnce(ctx context.Context) {
	seq := p.issued.Add(1)
	data, err := p.fetch(ctx)
	if ctx.Err() != nil {
		// Stopped while fetching.
		return
	}
	p.apply(seq, data, err)
}

func (p *Poller[T]) apply(seq uint64, data T, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq <= p.snap.Seq {
		p.log.WithFields(logrus.Fields{"seq": seq, "held": p.snap.Seq}).Debug("discarding superseded result")
		return false
	}
	p.snap.Seq = seq
	p.snap.FetchedAt = p.now()
	p.snap.Err = err
	if err != nil {
		p.log.WithError(err).WithField("seq", seq).Warn("fetch failed, keeping last data")
	} else {
		p.snap.Data = data
		p.snap.HasData = true
	}
	for ch := range p.subs {
		publish(ch, p.snap)
	}
	return true
}

// publish replaces whatever the subscriber has not consumed yet.
func publish[T any](ch chan Snapshot[T], s Snapshot[T]) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Subscribe returns a channel that always holds the newest snapshot not yet
// read. The channel is closed by Stop or by the returned cancel func.
func (p *Poller[T]) Subscribe() (<-chan Snapshot[T], func()) {
	ch := make(chan Snapshot[T], 1)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	if p.snap.Seq > 0 {
		ch <- p.snap
	}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[ch]; ok {
				delete(p.subs, ch)
				close(ch)
			}
		})
	}
}
