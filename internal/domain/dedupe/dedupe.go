// Package dedupe remembers recently submitted measurement ids so a retried
// submission is captured once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 100_000

// Deduper records seen ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed capture can be retried.
	Unrecord(ctx context.Context, id string)

	// Size returns how many ids are remembered.
	Size() int
}

type fifoDeduper struct {
	mu      sync.Mutex
	order   *list.List // oldest at front
	seen    map[string]*list.Element
	maxSize int
	onEvict func(id string)
}

// New creates an in-memory Deduper with FIFO eviction.
func New(opts ...Option) Deduper {
	d := &fifoDeduper{
		order:   list.New(),
		seen:    make(map[string]*list.Element),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *fifoDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *fifoDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *fifoDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}

// evictOldest must be called with mu held.
func (d *fifoDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	id, _ := d.order.Remove(front).(string)
	delete(d.seen, id)
	if d.onEvict != nil {
		d.onEvict(id)
	}
}
