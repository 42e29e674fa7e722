package cron

import (
	"context"
	"fmt"
	"regexp"
	"slices"
)

// Names of the marketplace housekeeping jobs. They double as metric labels
// and as values accepted by FARMCONNECT_CRON_DISABLED_JOBS.
const (
	JobSubscriptionExpiry  = "subscription_expiry"
	JobNotificationCleanup = "notification_cleanup"
)

var jobNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Job is one unit of work run on every cron cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs of one worker, keyed by unique snake_case name.
type Registry struct {
	jobs []Job
}

// NewRegistry registers jobs in order and fails on the first invalid one.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register appends job after checking its name.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("cron job is nil")
	}
	name := job.Name()
	if !jobNamePattern.MatchString(name) {
		return fmt.Errorf("cron job name %q must be snake_case", name)
	}
	if r.has(name) {
		return fmt.Errorf("cron job %q registered twice", name)
	}
	r.jobs = append(r.jobs, job)
	return nil
}

// Disable removes the named jobs. Unknown names are rejected.
func (r *Registry) Disable(names ...string) error {
	for _, name := range names {
		if !r.has(name) {
			return fmt.Errorf("cannot disable unknown cron job %q (known: %v)", name, r.Names())
		}
	}
	r.jobs = slices.DeleteFunc(r.jobs, func(job Job) bool {
		return slices.Contains(names, job.Name())
	})
	return nil
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	return slices.Clone(r.jobs)
}

// Names lists registered job names in run order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}

func (r *Registry) has(name string) bool {
	return slices.ContainsFunc(r.jobs, func(job Job) bool { return job.Name() == name })
}
