package cron

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Job is a unit of background reconciliation run on each cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs by unique name, in registration order.
type Registry struct {
	mu    sync.RWMutex
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry builds a registry preloaded with jobs. Nil jobs and repeated
// names are skipped.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		_ = registry.Register(job)
	}
	return registry
}

// Register adds job. A second job with the same name is rejected so one
// reconciler cannot run twice per cycle.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
