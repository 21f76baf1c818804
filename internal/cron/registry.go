package cron

import "context"

// Job is one schedulable maintenance task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry is the ordered list of jobs a worker runs each cycle. The
// storefront ships a single retention sweep today; the list keeps the worker
// wiring stable as more maintenance lands.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry from the provided jobs, skipping nils.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{jobs: make([]Job, 0, len(jobs))}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register appends a job to the run order. Nil jobs are dropped.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the run order so callers cannot reshuffle it.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}
