// internal/publish/publisher.go
package publish

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/tamzrod/evm-logger/internal/decoder"
)

// Sink is any downstream consumer of decoded samples.
// A sink's failure is its own: it is logged and skipped for that sample,
// never propagated to other sinks or to the acquisition loop.
type Sink interface {
	Name() string
	Publish(s decoder.Sample) error
	Close() error
}

// Publisher fans samples out to an ordered set of sinks. Each sink drains
// its own bounded queue on its own goroutine, so a slow consumer never
// blocks the decode loop. Beyond the bound, the oldest queued sample is
// dropped: telemetry favors freshness over completeness.
type Publisher struct {
	queues []*sinkQueue
	wg     sync.WaitGroup
}

type sinkQueue struct {
	sink    Sink
	ch      chan decoder.Sample
	dropped atomic.Uint64
}

// New creates a publisher with one queue of queueSize per sink.
func New(queueSize int, sinks ...Sink) *Publisher {
	if queueSize <= 0 {
		queueSize = 64
	}

	p := &Publisher{}
	for _, s := range sinks {
		q := &sinkQueue{sink: s, ch: make(chan decoder.Sample, queueSize)}
		p.queues = append(p.queues, q)

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for sample := range q.ch {
				if err := q.sink.Publish(sample); err != nil {
					glog.Errorf("publish: sink %s: %v", q.sink.Name(), err)
				}
			}
		}()
	}
	return p
}

// Publish enqueues a sample for every sink. Never blocks. Must not be
// called after Close; the acquisition loop is the only caller.
func (p *Publisher) Publish(s decoder.Sample) {
	for _, q := range p.queues {
		select {
		case q.ch <- s:
			continue
		default:
		}

		// Queue full: make room by dropping the oldest sample.
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
		select {
		case q.ch <- s:
		default:
			q.dropped.Add(1)
		}
	}
}

// PublishHealth delivers a health snapshot to every sink that carries one.
// Health transitions are rare; delivery is synchronous and isolated.
func (p *Publisher) PublishHealth(hs HealthSnapshot) {
	for _, q := range p.queues {
		h, ok := q.sink.(HealthSink)
		if !ok {
			continue
		}
		if err := h.PublishHealth(hs); err != nil {
			glog.Errorf("publish: sink %s health: %v", q.sink.Name(), err)
		}
	}
}

// Dropped reports how many samples were discarded for the named sink.
func (p *Publisher) Dropped(name string) uint64 {
	for _, q := range p.queues {
		if q.sink.Name() == name {
			return q.dropped.Load()
		}
	}
	return 0
}

// Close drains every queue, then closes the sinks.
func (p *Publisher) Close() error {
	for _, q := range p.queues {
		close(q.ch)
	}
	p.wg.Wait()

	var errs []string
	for _, q := range p.queues {
		if n := q.dropped.Load(); n > 0 {
			glog.Warningf("publish: sink %s dropped %d samples", q.sink.Name(), n)
		}
		if err := q.sink.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", q.sink.Name(), err))
		}
	}
	if len(errs) > 0 {
		return errors.New("publish: close: " + strings.Join(errs, " | "))
	}
	return nil
}
