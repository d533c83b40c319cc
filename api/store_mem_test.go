package api

import (
	"context"
	"slices"
	"sync"
)

// memStore is an in-memory JobStore for tests.
type memStore struct {
	mu    sync.Mutex
	jobs  map[string]ScanJob
	lines map[string][]string
	queue chan string
}

func newMemStore() *memStore {
	return &memStore{
		jobs:  make(map[string]ScanJob),
		lines: make(map[string][]string),
		queue: make(chan string, 16),
	}
}

func (m *memStore) CreateJob(_ context.Context, job *ScanJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memStore) GetJob(_ context.Context, id string) (*ScanJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	job.Lines = slices.Clone(m.lines[id])
	return &job, nil
}

func (m *memStore) UpdateJob(_ context.Context, job *ScanJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *job
	stored.Lines = nil
	m.jobs[job.ID] = stored
	return nil
}

func (m *memStore) AppendLine(_ context.Context, id, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[id] = append(m.lines[id], line)
	return nil
}

func (m *memStore) ClearLines(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, id)
	return nil
}

func (m *memStore) PushToQueue(_ context.Context, id string) error {
	m.queue <- id
	return nil
}

func (m *memStore) PopFromQueue(ctx context.Context) (string, error) {
	select {
	case id := <-m.queue:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
