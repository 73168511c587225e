package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T, workers int, opts ...Option) *Scheduler {
	t.Helper()
	s := New(context.Background(), workers, opts...)
	t.Cleanup(s.Stop)
	return s
}

func pollUntilDone[T any](t *testing.T, task *Task[T]) (T, error) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if v, done, err := task.Poll(); done {
			return v, err
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("задача не завершилась вовремя")
	var zero T
	return zero, nil
}

func TestTask_PollReturnsResult(t *testing.T) {
	s := newScheduler(t, 2)

	task := Spawn(context.Background(), s, "generate", func(ctx context.Context) (int, error) {
		return 42, nil
	})

	v, err := pollUntilDone(t, task)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "generate", task.Kind())
}

func TestTask_PollDoesNotBlock(t *testing.T) {
	s := newScheduler(t, 1)
	release := make(chan struct{})

	task := Spawn(context.Background(), s, "render", func(ctx context.Context) (string, error) {
		<-release
		return "done", nil
	})

	_, done, err := task.Poll()
	assert.False(t, done, "Незавершённая задача не должна блокировать опрос")
	assert.NoError(t, err)

	close(release)
	v, err := task.Wait()
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestTask_ErrorAndPanic(t *testing.T) {
	s := newScheduler(t, 2)
	boom := errors.New("boom")

	failed := Spawn(context.Background(), s, "generate", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	panicked := Spawn(context.Background(), s, "render", func(ctx context.Context) (int, error) {
		panic("сломалось")
	})

	_, err := pollUntilDone(t, failed)
	assert.ErrorIs(t, err, boom)

	_, err = pollUntilDone(t, panicked)
	assert.ErrorIs(t, err, ErrPanic, "Паника превращается в ошибку задачи")

	stats := s.Stats()
	assert.Equal(t, int64(2), stats.Failed)
	assert.Equal(t, int64(2), stats.Submitted)
}

type recordingObserver struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recordingObserver) TaskFinished(kind string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func TestScheduler_ObserverAndStop(t *testing.T) {
	obs := &recordingObserver{}
	s := New(context.Background(), 4, WithObserver(obs))

	var tasks []*Task[int]
	for i := 0; i < 16; i++ {
		tasks = append(tasks, Spawn(context.Background(), s, "generate", func(ctx context.Context) (int, error) {
			return i * i, nil
		}))
	}
	s.Stop()

	for i, task := range tasks {
		v, done, err := task.Poll()
		require.True(t, done, "После Stop все задачи завершены")
		require.NoError(t, err)
		assert.Equal(t, i*i, v)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Len(t, obs.kinds, 16)
	assert.Equal(t, int64(16), s.Stats().Completed)
}

func TestDefaultWorkers(t *testing.T) {
	assert.Positive(t, DefaultWorkers())
	assert.Equal(t, 3, newScheduler(t, 3).Workers())
}
