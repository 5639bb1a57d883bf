package runner

import (
	"errors"
	"sync"
	"time"

	"reconciliation-service/internal/events"

	"github.com/google/uuid"
)

var (
	// ErrQueueFull means the queue buffer is at capacity.
	ErrQueueFull = errors.New("fila de conciliação cheia")
	// ErrQueueClosed means Submit was called after Close.
	ErrQueueClosed = errors.New("fila de conciliação encerrada")
)

// JobState is the lifecycle state of a queued batch.
type JobState string

// Constants for job states.
const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// eventBuffer is the capacity of a ticket's event channel. Events that do not
// fit are still kept in the job log.
const eventBuffer = 256

// Job is an immutable snapshot of a queued batch.
type Job struct {
	ID          string         `json:"id"`
	Request     Request        `json:"request"`
	State       JobState       `json:"state"`
	SubmittedAt time.Time      `json:"submitted_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
	Result      *Result        `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	Events      []events.Event `json:"events"`
}

// Ticket is handed to the submitter. Events is closed when the job finishes.
type Ticket struct {
	ID     string
	Events <-chan events.Event
}

type runFunc func(req Request, sink events.Sink) (*Result, error)

type job struct {
	snapshot Job
	log      events.Recorder
	out      chan events.Event
}

// Queue runs batches one at a time on a single worker goroutine.
type Queue struct {
	run     runFunc
	pending chan *job

	mu     sync.RWMutex
	jobs   map[string]*job
	closed bool

	done chan struct{}
}

// NewQueue starts the worker. size is the number of batches that may wait.
func NewQueue(r *Runner, size int) *Queue {
	return newQueue(func(req Request, sink events.Sink) (*Result, error) {
		return r.WithSink(events.Tee(r.sink, sink)).Run(req)
	}, size)
}

func newQueue(run runFunc, size int) *Queue {
	if size < 1 {
		size = 1
	}
	q := &Queue{
		run:     run,
		pending: make(chan *job, size),
		jobs:    make(map[string]*job),
		done:    make(chan struct{}),
	}
	go q.worker()
	return q
}

// Submit enqueues a batch.
func (q *Queue) Submit(req Request) (Ticket, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return Ticket{}, ErrQueueClosed
	}

	j := &job{
		snapshot: Job{ID: uuid.NewString(), Request: req, State: JobQueued, SubmittedAt: time.Now()},
		out:      make(chan events.Event, eventBuffer),
	}
	select {
	case q.pending <- j:
	default:
		return Ticket{}, ErrQueueFull
	}
	q.jobs[j.snapshot.ID] = j
	return Ticket{ID: j.snapshot.ID, Events: j.out}, nil
}

// Get returns a snapshot of a job.
func (q *Queue) Get(id string) (Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	j, ok := q.jobs[id]
	if !ok {
		return Job{}, false
	}
	snap := j.snapshot
	snap.Events = j.log.Events()
	return snap, true
}

// Close stops accepting batches and waits for the queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.pending)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) worker() {
	defer close(q.done)
	for j := range q.pending {
		q.process(j)
	}
}

func (q *Queue) process(j *job) {
	q.update(j, func(s *Job) {
		now := time.Now()
		s.State = JobRunning
		s.StartedAt = &now
	})

	record := j.log.Sink()
	sink := func(ev events.Event) {
		record(ev)
		select {
		case j.out <- ev:
		default:
		}
	}

	result, err := q.run(j.snapshot.Request, sink)
	close(j.out)

	q.update(j, func(s *Job) {
		now := time.Now()
		s.FinishedAt = &now
		s.Result = result
		if err != nil {
			s.State = JobFailed
			s.Error = err.Error()
			return
		}
		s.State = JobDone
	})
}

func (q *Queue) update(j *job, fn func(*Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn(&j.snapshot)
}
