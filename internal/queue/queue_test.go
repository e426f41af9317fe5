package queue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/torosent/corpusrun/internal/queue"
)

func makePaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("problems/%03d.txt", i)
	}
	return paths
}

func TestPartitionBatchCounts(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{0, 50, nil},
		{1, 50, []int{1}},
		{50, 50, []int{50}},
		{51, 50, []int{50, 1}},
		{120, 50, []int{50, 50, 20}},
		{7, 3, []int{3, 3, 1}},
	}

	for _, tt := range tests {
		batches := queue.Partition(makePaths(tt.n), tt.size)
		if len(batches) != len(tt.want) {
			t.Fatalf("Partition(%d, %d) = %d batches, want %d", tt.n, tt.size, len(batches), len(tt.want))
		}
		for i, b := range batches {
			if len(b) != tt.want[i] {
				t.Errorf("Partition(%d, %d) batch %d size = %d, want %d", tt.n, tt.size, i, len(b), tt.want[i])
			}
		}
	}
}

func TestPartitionPreservesOrder(t *testing.T) {
	paths := makePaths(120)
	var flat []string
	for _, b := range queue.Partition(paths, 50) {
		flat = append(flat, b...)
	}
	if len(flat) != len(paths) {
		t.Fatalf("expected %d paths, got %d", len(paths), len(flat))
	}
	for i := range paths {
		if flat[i] != paths[i] {
			t.Fatalf("path %d = %q, want %q", i, flat[i], paths[i])
		}
	}
}

func TestFillEnqueuesStopsAfterWork(t *testing.T) {
	for _, workers := range []int{1, 4} {
		for _, n := range []int{0, 1, 49, 120, 1000} {
			q := queue.New()
			got := queue.Fill(q, makePaths(n), 50, workers)
			batches := (n + 49) / 50
			if got != batches+workers {
				t.Fatalf("Fill(n=%d, workers=%d) = %d items, want %d", n, workers, got, batches+workers)
			}
			if q.Len() != got {
				t.Fatalf("queue length %d, want %d", q.Len(), got)
			}

			ctx := context.Background()
			for i := 0; i < batches; i++ {
				item, err := q.Dequeue(ctx)
				if err != nil {
					t.Fatalf("dequeue: %v", err)
				}
				if item.IsStop() {
					t.Fatalf("stop at position %d before all %d batches", i, batches)
				}
			}
			for i := 0; i < workers; i++ {
				item, err := q.Dequeue(ctx)
				if err != nil {
					t.Fatalf("dequeue: %v", err)
				}
				if !item.IsStop() {
					t.Fatalf("expected stop at tail position %d", i)
				}
			}
		}
	}
}

func TestFillSingleWorkerScenario(t *testing.T) {
	q := queue.New()
	queue.Fill(q, makePaths(120), 50, 1)

	ctx := context.Background()
	var sizes []int
	for {
		item, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if item.IsStop() {
			break
		}
		sizes = append(sizes, len(item.Batch()))
	}
	if fmt.Sprint(sizes) != "[50 50 20]" {
		t.Fatalf("batch sizes = %v, want [50 50 20]", sizes)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after the single stop, got %d", q.Len())
	}
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := queue.New()
	got := make(chan queue.Item, 1)
	go func() {
		item, err := q.Dequeue(context.Background())
		if err == nil {
			got <- item
		}
	}()

	select {
	case <-got:
		t.Fatal("dequeue returned before anything was enqueued")
	case <-time.After(20 * time.Millisecond):
	}

	q.Enqueue(queue.Work(queue.Batch{"a.txt"}))
	select {
	case item := <-got:
		if item.IsStop() || item.Batch()[0] != "a.txt" {
			t.Fatalf("unexpected item %+v", item)
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake after enqueue")
	}
}

func TestDequeueHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := queue.New()
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		errs <- err
	}()
	cancel()

	select {
	case err := <-errs:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue did not return after cancel")
	}
}

func TestConcurrentConsumersDrainEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	const workers = 8
	q := queue.New()
	paths := makePaths(1037)

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				item, err := q.Dequeue(context.Background())
				if err != nil || item.IsStop() {
					return
				}
				mu.Lock()
				for _, p := range item.Batch() {
					seen[p]++
				}
				mu.Unlock()
			}
		}()
	}

	// Produce after consumers are already waiting.
	queue.Fill(q, paths, 50, workers)
	wg.Wait()

	if len(seen) != len(paths) {
		t.Fatalf("saw %d distinct paths, want %d", len(seen), len(paths))
	}
	for p, c := range seen {
		if c != 1 {
			t.Fatalf("path %s dequeued %d times", p, c)
		}
	}
}
