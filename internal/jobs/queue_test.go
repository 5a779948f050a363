package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []Job
	err  error
}

func (p *recordingProcessor) ProcessJob(_ context.Context, j Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, j)
	return p.err
}

func (p *recordingProcessor) jobs() []Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Job, len(p.seen))
	copy(out, p.seen)
	return out
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(zerolog.Nop())
	q.Enqueue(Job{Type: TypeScoreContent, ContentID: 1})
	q.Enqueue(Job{Type: TypeScoreContent, ContentID: 2})
	assert.Equal(t, 2, q.Len())

	first, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, int64(1), first.ContentID)

	second, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, int64(2), second.ContentID)

	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestWorkerDrainsInOrder(t *testing.T) {
	q := NewQueue(zerolog.Nop())
	proc := &recordingProcessor{}
	w := NewWorker(q, proc, time.Millisecond, zerolog.Nop())

	q.Enqueue(Job{Type: TypeFinalizeGeneration, EntityID: "1"})
	q.Enqueue(Job{Type: TypeFinalizeGeneration, EntityID: "2"})

	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool { return len(proc.jobs()) == 2 }, time.Second, 5*time.Millisecond)
	seen := proc.jobs()
	assert.Equal(t, "1", seen[0].EntityID)
	assert.Equal(t, "2", seen[1].EntityID)
	assert.Equal(t, 0, q.Len())
}

func TestWorkerDropsFailedJobs(t *testing.T) {
	q := NewQueue(zerolog.Nop())
	proc := &recordingProcessor{err: errors.New("boom")}
	w := NewWorker(q, proc, time.Millisecond, zerolog.Nop())

	q.Enqueue(Job{Type: TypeScoreContent, ContentID: 1})
	q.Enqueue(Job{Type: TypeScoreContent, ContentID: 2})

	w.Start()
	defer w.Stop()

	// Both jobs are attempted; failures do not wedge the queue.
	require.Eventually(t, func() bool { return len(proc.jobs()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, q.Len())
}

func TestWorkerStartStopIdempotent(t *testing.T) {
	q := NewQueue(zerolog.Nop())
	proc := &recordingProcessor{}
	w := NewWorker(q, proc, time.Millisecond, zerolog.Nop())

	w.Start()
	w.Start()
	w.Stop()
	w.Stop()

	// Restart after stop still processes jobs.
	q.Enqueue(Job{Type: TypeScoreContent, ContentID: 7})
	w.Start()
	defer w.Stop()
	require.Eventually(t, func() bool { return len(proc.jobs()) == 1 }, time.Second, 5*time.Millisecond)
}
