package simplex

import "sync"

// barrier is a reusable gate for a fixed number of parties. await blocks
// until every party has arrived; the last arrival runs action (when non-nil)
// before releasing the others, which gives the serial bookkeeping sections
// between parallel phases a single designated writer. The mutex pairing
// makes every write performed before await visible to every party after it
// returns.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	waiting int
	phase   uint64
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) await(action func()) {
	b.mu.Lock()
	phase := b.phase
	b.waiting++
	if b.waiting == b.parties {
		if action != nil {
			action()
		}
		b.waiting = 0
		b.phase++
		b.mu.Unlock()
		b.cond.Broadcast()
		return
	}
	for phase == b.phase {
		b.cond.Wait()
	}
	b.mu.Unlock()
}
