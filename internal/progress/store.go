// Package progress implements ProgressStore: a read-heavy, in-memory
// registry of in-flight and completed jobs keyed by execution id, with
// bounded retention of completed jobs.
package progress

import (
	"container/list"
	"sync"

	"github.com/aristath/sentinel/internal/domain"
)

// Store is ProgressStore. Safe for concurrent use; reads take an RLock so
// many pollers never contend with each other.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]domain.Job
	completed *list.List // insertion-ordered job ids, front = oldest
	retention int
}

// New builds a Store retaining at most retention completed jobs. Running
// jobs are never evicted regardless of this bound.
func New(retention int) *Store {
	if retention <= 0 {
		retention = 64
	}
	return &Store{
		jobs:      make(map[string]domain.Job),
		completed: list.New(),
		retention: retention,
	}
}

// Put inserts or overwrites job's record. If this Put transitions the job
// into a terminal state for the first time, it is appended to the
// completed-jobs eviction queue and the oldest completed job is dropped if
// the store is now over its retention bound.
func (s *Store) Put(job domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.jobs[job.ID]
	wasTerminal := existed && s.jobs[job.ID].State.IsTerminal()
	s.jobs[job.ID] = job

	if job.State.IsTerminal() && !wasTerminal {
		s.completed.PushBack(job.ID)
		s.evictOldest()
	}
}

// evictOldest drops the oldest completed job if the store is over its
// retention bound. Caller holds s.mu.
func (s *Store) evictOldest() {
	for s.completed.Len() > s.retention {
		front := s.completed.Front()
		if front == nil {
			return
		}
		s.completed.Remove(front)
		id := front.Value.(string)
		if job, ok := s.jobs[id]; ok && job.State.IsTerminal() {
			delete(s.jobs, id)
		}
	}
}

// Get returns the job record for id, or domain.ErrJobNotFound.
func (s *Store) Get(id string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return job, nil
}

// Evict drops id from the store unconditionally, for tests and admin use.
func (s *Store) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}
