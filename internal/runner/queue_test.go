package runner

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"reconciliation-service/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobs(t *testing.T) {
	q := newQueue(func(req Request, sink events.Sink) (*Result, error) {
		em := events.NewEmitter(sink)
		for _, c := range req.Companies {
			em.For(c).Info("empresa", nil)
		}
		return &Result{Period: req.Period}, nil
	}, 4)
	defer q.Close()

	ticket, err := q.Submit(Request{Period: "11-2025", Companies: []string{"A", "B"}})
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)

	var got []string
	for ev := range ticket.Events {
		got = append(got, ev.Company)
	}
	assert.Equal(t, []string{"A", "B"}, got)

	require.Eventually(t, func() bool {
		job, ok := q.Get(ticket.ID)
		return ok && job.State == JobDone
	}, time.Second, 5*time.Millisecond)

	job, _ := q.Get(ticket.ID)
	require.NotNil(t, job.Result)
	assert.Equal(t, "11-2025", job.Result.Period)
	assert.Len(t, job.Events, 2)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.FinishedAt)

	_, ok := q.Get("inexistente")
	assert.False(t, ok)
}

func TestQueueRunsOneJobAtATime(t *testing.T) {
	var running, peak int32
	q := newQueue(func(req Request, sink events.Sink) (*Result, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return &Result{}, nil
	}, 8)

	var ids []string
	for i := 0; i < 5; i++ {
		ticket, err := q.Submit(Request{})
		require.NoError(t, err)
		ids = append(ids, ticket.ID)
	}
	q.Close()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
	for _, id := range ids {
		job, ok := q.Get(id)
		require.True(t, ok)
		assert.Equal(t, JobDone, job.State)
	}
}

func TestQueueFullAndClosed(t *testing.T) {
	gate := make(chan struct{})
	q := newQueue(func(req Request, sink events.Sink) (*Result, error) {
		<-gate
		return &Result{}, nil
	}, 1)

	first, err := q.Submit(Request{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		job, _ := q.Get(first.ID)
		return job.State == JobRunning
	}, time.Second, 5*time.Millisecond)

	second, err := q.Submit(Request{})
	require.NoError(t, err)
	queued, _ := q.Get(second.ID)
	assert.Equal(t, JobQueued, queued.State)

	_, err = q.Submit(Request{})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(gate)
	q.Close()

	_, err = q.Submit(Request{})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueFailedJob(t *testing.T) {
	q := newQueue(func(req Request, sink events.Sink) (*Result, error) {
		return nil, errors.New("pasta base não encontrada")
	}, 1)

	ticket, err := q.Submit(Request{})
	require.NoError(t, err)
	q.Close()

	job, ok := q.Get(ticket.ID)
	require.True(t, ok)
	assert.Equal(t, JobFailed, job.State)
	assert.Equal(t, "pasta base não encontrada", job.Error)
	assert.Nil(t, job.Result)
	_, open := <-ticket.Events
	assert.False(t, open)
}

func TestNewQueueWithRunner(t *testing.T) {
	_, cfg := fixture(t)
	var rec events.Recorder
	q := NewQueue(New(cfg, rec.Sink()), 2)

	ticket, err := q.Submit(Request{Companies: []string{"LOJA A"}})
	require.NoError(t, err)
	q.Close()

	job, _ := q.Get(ticket.ID)
	require.Equal(t, JobDone, job.State, job.Error)
	assert.Equal(t, CompanyDone, job.Result.Companies[0].Status)
	assert.NotEmpty(t, job.Events)
	assert.Len(t, rec.Events(), len(job.Events))
}
