package reminders

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process TriggerStore. It backs tests and local
// runs without Redis; it is not durable across restarts.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*ReminderJob
	due  map[string]time.Time // trigger index, mirrors the Redis sorted set
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*ReminderJob),
		due:  make(map[string]time.Time),
	}
}

func (s *MemoryStore) Put(ctx context.Context, job *ReminderJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.Key] = &copied
	s.due[job.Key] = job.FireAt
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, key)
	delete(s.due, key)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*ReminderJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[key]
	if !ok {
		return nil, ErrTriggerNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) Due(ctx context.Context, now time.Time) ([]*ReminderJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var jobs []*ReminderJob
	for key, fireAt := range s.due {
		if fireAt.After(now) {
			continue
		}
		if job, ok := s.jobs[key]; ok {
			copied := *job
			jobs = append(jobs, &copied)
		}
	}
	return jobs, nil
}

func (s *MemoryStore) Take(ctx context.Context, key string, fireAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	indexed, ok := s.due[key]
	if !ok || !indexed.Equal(fireAt) {
		return false, nil
	}
	delete(s.due, key)
	return true, nil
}

func (s *MemoryStore) Settle(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// An index entry means a fresh trigger was installed after the
	// claim; it owns the job document now.
	if _, ok := s.due[key]; ok {
		return nil
	}
	delete(s.jobs, key)
	return nil
}

func (s *MemoryStore) Rearm(ctx context.Context, job *ReminderJob) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.due[job.Key]; ok {
		return false, nil // superseded while executing
	}
	if _, ok := s.jobs[job.Key]; !ok {
		return false, nil // canceled while executing
	}
	copied := *job
	s.jobs[job.Key] = &copied
	s.due[job.Key] = job.FireAt
	return true, nil
}
