package service

import "sync"

// JobInfo is what delivery needs to resolve a job's staged files.
type JobInfo struct {
	Dir      string
	Variants []string // successful variants, catalog order
}

// Registry maps job ids to their staging directories. It is injected
// into whoever needs it rather than living in a package-level variable,
// grows only, and is safe for concurrent readers.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]JobInfo
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]JobInfo)}
}

func (r *Registry) Add(jobID string, info JobInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[jobID] = info
}

func (r *Registry) Lookup(jobID string) (JobInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.jobs[jobID]
	return info, ok
}

func (r *Registry) JobIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	return ids
}
