package engagement

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

// saveTimeout bounds a single store write.
const saveTimeout = 10 * time.Second

// persister writes profile snapshots in the background. Only the newest
// pending snapshot is kept, so writes never reorder and a slow store never
// builds a backlog. A failed write is not retried; the next snapshot is.
type persister struct {
	store domain.ProfileStore

	mu      sync.Mutex
	cond    *sync.Cond
	latest  []byte
	gen     uint64 // snapshots enqueued
	saved   uint64 // newest snapshot attempted
	closed  bool
	lastErr error
	done    chan struct{}
}

func newPersister(store domain.ProfileStore) *persister {
	p := &persister{store: store, done: make(chan struct{})}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// enqueue replaces any pending snapshot with blob.
func (p *persister) enqueue(blob []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		log.Printf("[persist] dropping snapshot: persister closed")
		return
	}
	p.latest = blob
	p.gen++
	p.cond.Broadcast()
}

func (p *persister) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for p.latest == nil && !p.closed {
			p.cond.Wait()
		}
		if p.latest == nil {
			p.mu.Unlock()
			return
		}
		blob, gen := p.latest, p.gen
		p.latest = nil
		p.mu.Unlock()

		err := p.save(blob)

		p.mu.Lock()
		p.saved = gen
		p.lastErr = err
		p.cond.Broadcast()
		p.mu.Unlock()

		if err != nil {
			log.Printf("[persist] save failed (in-memory state kept): %v", err)
		}
	}
}

func (p *persister) save(blob []byte) error {
	if p.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	return p.store.Save(ctx, blob)
}

// flush blocks until every enqueued snapshot has been attempted.
func (p *persister) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.saved < p.gen {
		p.cond.Wait()
	}
}

// close drains the pending snapshot and stops the writer.
func (p *persister) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	<-p.done
}

// lastError returns the result of the most recent write.
func (p *persister) lastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
