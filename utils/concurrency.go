package utils

import (
	"sort"
	"sync"
	"time"
)

// WorkerPool manages a pool of goroutines with rate limiting.
type WorkerPool struct {
	maxWorkers  int
	rateLimitMs int
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastRequest time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job for execution in the pool.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.enforceRateLimit()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	if !wp.lastRequest.IsZero() {
		elapsed := time.Since(wp.lastRequest)
		if elapsed < minInterval {
			time.Sleep(minInterval - elapsed)
		}
	}
	wp.lastRequest = time.Now()
}

// DateSet is a thread-safe set of ISO dates used to deduplicate
// weather lookups before a bulk fetch.
type DateSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewDateSet creates an empty DateSet.
func NewDateSet() *DateSet {
	return &DateSet{seen: make(map[string]struct{})}
}

// Add returns true if the date was newly added, false if already present.
func (s *DateSet) Add(date string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[date]; exists {
		return false
	}
	s.seen[date] = struct{}{}
	return true
}

// Contains returns true if the date is in the set.
func (s *DateSet) Contains(date string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[date]
	return exists
}

// Size returns the number of unique dates tracked.
func (s *DateSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Sorted returns the dates in ascending order. ISO dates sort
// lexically in chronological order.
func (s *DateSet) Sorted() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.seen))
	for d := range s.seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
