// Package jobs provides the in-memory job queue and its polling worker used
// to score and finalize generated content off the request path.
package jobs

import (
	"sync"

	"github.com/rs/zerolog"
)

// Job type names.
const (
	TypeScoreContent       = "score_generated_content"
	TypeFinalizeGeneration = "finalize_generation"
)

// Job is a unit of deferred work. Fields are populated per Type; unused
// fields stay zero.
type Job struct {
	Type string

	// score_generated_content
	ContentID  int64
	SubjectID  int
	PromptType string

	// finalize_generation
	EntityType string
	EntityID   string

	// Generated text and the factual context it was produced from.
	Text    string
	Context map[string]any
}

// Queue is an unbounded FIFO queue. Enqueue never blocks; Dequeue returns
// immediately. Safe for concurrent use.
type Queue struct {
	mu   sync.Mutex
	jobs []Job
	log  zerolog.Logger
}

// NewQueue builds an empty queue.
func NewQueue(log zerolog.Logger) *Queue {
	return &Queue{log: log}
}

// Enqueue appends a job.
func (q *Queue) Enqueue(j Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, j)
	q.mu.Unlock()
	q.log.Info().
		Str("type", j.Type).
		Str("entityType", j.EntityType).
		Str("entityId", j.EntityID).
		Msg("enqueued job")
}

// Dequeue pops the oldest job, reporting false when the queue is empty.
func (q *Queue) Dequeue() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return Job{}, false
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	return j, true
}

// Len reports the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
