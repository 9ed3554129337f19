package editor

import "sync"

// ReleaseBus fans a pointer release out to subscribed editors, so a drag that ends outside
// the grid still stops painting.
type ReleaseBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

func NewReleaseBus() *ReleaseBus {
	return &ReleaseBus{subs: map[int]func(){}}
}

// Subscribe registers fn and returns its unsubscribe func. Unsubscribing twice is a no-op.
func (b *ReleaseBus) Subscribe(fn func()) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *ReleaseBus) Publish() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (b *ReleaseBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
