// Package jobs maintains the shell's job table. The table is owned by
// the main goroutine; other goroutines must marshal access through a
// mainthread.Dispatcher before calling into it.
package jobs

import (
	"fmt"
	"sync"

	"github.com/brainless/GoFish/internal/log"
)

// Process is one process of a job's pipeline.
type Process struct {
	Pid int
	// ActualCmd is the resolved command line of the process, used for
	// %string child-process matching.
	ActualCmd string
}

// Job represents one entry in the job table.
type Job struct {
	ID         int
	Pgid       int
	Command    string
	Background bool
	Processes  []Process
}

// CommandIsEmpty reports whether the job has no command text. Such
// entries are placeholders and are skipped by %-expansion.
func (j *Job) CommandIsEmpty() bool {
	return j.Command == ""
}

// Table holds the active jobs, most recently created first.
type Table struct {
	mu         sync.RWMutex
	jobs       []*Job
	nextID     int
	lastBgPgid int
}

// NewTable creates an empty job table.
func NewTable() *Table {
	return &Table{nextID: 1}
}

// Add registers a job and assigns it an id. If the job is backgrounded
// its pgid becomes the "last background job" answer for %last.
func (t *Table) Add(job *Job) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	job.ID = t.nextID
	t.nextID++
	t.jobs = append([]*Job{job}, t.jobs...)
	if job.Background {
		t.lastBgPgid = job.Pgid
	}
	log.Logger.Debugf("Job %d registered: %s (pgid %d)", job.ID, job.Command, job.Pgid)
	return job
}

// Remove deletes the job with the given id.
func (t *Table) Remove(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, job := range t.jobs {
		if job.ID == id {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("job %d not found", id)
}

// Get returns the job with the given id, or nil.
func (t *Table) Get(id int) *Job {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, job := range t.jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}

// Foreach calls fn for each job, newest first, until fn returns false.
func (t *Table) Foreach(fn func(*Job) bool) {
	t.mu.RLock()
	jobs := append([]*Job(nil), t.jobs...)
	t.mu.RUnlock()

	for _, job := range jobs {
		if !fn(job) {
			return
		}
	}
}

// LastBackgroundPgid returns the process group of the most recently
// backgrounded job, or 0 if none has been backgrounded yet.
func (t *Table) LastBackgroundPgid() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastBgPgid
}
