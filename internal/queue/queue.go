// Package queue implements the work queue that feeds the worker pool.
//
// Producers enqueue [Work] items carrying path batches, followed by one [Stop]
// item per worker. Workers dequeue until they draw a Stop.
package queue

import (
	"context"
	"sync"
)

// DefaultBatchSize is the number of paths handed to a worker per dequeue.
const DefaultBatchSize = 50

// Batch is a contiguous chunk of input paths.
type Batch []string

// Item is a queue element: either a batch of work or a stop signal.
type Item struct {
	batch Batch
	stop  bool
}

// Work wraps a batch as a queue item.
func Work(b Batch) Item { return Item{batch: b} }

// Stop returns the item that tells one worker to exit.
func Stop() Item { return Item{stop: true} }

// IsStop reports whether the item is a stop signal.
func (i Item) IsStop() bool { return i.stop }

// Batch returns the paths carried by a work item.
func (i Item) Batch() Batch { return i.batch }

// Queue is an unbounded FIFO safe for many producers and consumers.
// Enqueue never blocks; Dequeue blocks until an item is available.
type Queue struct {
	mu    sync.Mutex
	items []Item
	ready chan struct{}
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Enqueue appends an item and wakes one waiting consumer.
func (q *Queue) Enqueue(item Item) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.signal()
}

// Dequeue removes the oldest item, blocking until one exists or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (Item, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = Item{}
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				// Pass the wakeup on so other waiters see the remaining items.
				q.signal()
			}
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return Item{}, ctx.Err()
		}
	}
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Partition splits paths into contiguous batches of at most size entries,
// preserving order. The last batch may be shorter.
func Partition(paths []string, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(paths) == 0 {
		return nil
	}
	batches := make([]Batch, 0, (len(paths)+size-1)/size)
	for start := 0; start < len(paths); start += size {
		end := start + size
		if end > len(paths) {
			end = len(paths)
		}
		batches = append(batches, Batch(paths[start:end:end]))
	}
	return batches
}

// Fill enqueues every batch of paths followed by one Stop per worker and
// returns the number of items enqueued.
func Fill(q *Queue, paths []string, batchSize, workers int) int {
	n := 0
	for _, b := range Partition(paths, batchSize) {
		q.Enqueue(Work(b))
		n++
	}
	for i := 0; i < workers; i++ {
		q.Enqueue(Stop())
		n++
	}
	return n
}
