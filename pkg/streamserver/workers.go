/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package streamserver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yomguy/servestream-sub001/pkg/logger"
	"github.com/yomguy/servestream-sub001/pkg/metadata"
)

var ErrJobRunning = errors.New("an enrichment job is already running")

type JobState string

const (
	JobRunning   JobState = "running"
	JobDone      JobState = "done"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// Job is the state of one metadata enrichment pass.
type Job struct {
	ID       string          `json:"id"`
	State    JobState        `json:"state"`
	Started  time.Time       `json:"started"`
	Finished *time.Time      `json:"finished,omitempty"`
	Result   metadata.Result `json:"result"`
	Error    string          `json:"error,omitempty"`
}

type jobTracker struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	running string
	wg      sync.WaitGroup
}

func newJobTracker() *jobTracker {
	return &jobTracker{jobs: make(map[string]*Job)}
}

// start runs fn in the background. Only one job runs at a time.
func (t *jobTracker) start(ctx context.Context, fn func(context.Context) (metadata.Result, error)) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running != "" {
		return *t.jobs[t.running], ErrJobRunning
	}

	job := &Job{ID: uuid.NewString(), State: JobRunning, Started: time.Now()}
	t.jobs[job.ID] = job
	t.running = job.ID

	t.wg.Add(1)
	go t.monitorWorker(ctx, job.ID, fn)
	return *job, nil
}

func (t *jobTracker) monitorWorker(ctx context.Context, id string, fn func(context.Context) (metadata.Result, error)) {
	defer t.wg.Done()

	logger.Infof("Enrichment job %s started", id)
	res, err := fn(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	job := t.jobs[id]
	now := time.Now()
	job.Finished = &now
	job.Result = res
	switch {
	case err == nil:
		job.State = JobDone
	case errors.Is(err, context.Canceled):
		job.State = JobCancelled
		job.Error = err.Error()
	default:
		job.State = JobFailed
		job.Error = err.Error()
	}
	t.running = ""
	logger.Infof("Enrichment job %s %s: %d updated, %d empty, %d failed", id, job.State, res.Updated, res.Empty, res.Failed)
}

func (t *jobTracker) get(id string) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (t *jobTracker) wait() {
	t.wg.Wait()
}
