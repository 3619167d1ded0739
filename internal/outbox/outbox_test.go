package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRunsQueuedTasks(t *testing.T) {
	d := NewDispatcher(2)

	var mu sync.Mutex
	ran := make(map[string]int)
	done := make(chan struct{}, 3)

	task := func(name string) Task {
		return Task{
			Name: name,
			Run: func(ctx context.Context) error {
				mu.Lock()
				ran[name]++
				mu.Unlock()
				done <- struct{}{}
				return nil
			},
		}
	}

	d.Enqueue(task("delete-cheers"), task("delete-blobs"), task("push"))
	for i := 0; i < 3; i++ {
		<-done
	}
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, ran["delete-cheers"])
	assert.Equal(t, 1, ran["delete-blobs"])
	assert.Equal(t, 1, ran["push"])
}

func TestDispatcherSwallowsTaskErrors(t *testing.T) {
	d := NewDispatcher(1)

	done := make(chan struct{}, 2)
	failing := Task{
		Name: "failing",
		Run: func(ctx context.Context) error {
			done <- struct{}{}
			return errors.New("backend unavailable")
		},
	}
	succeeding := Task{
		Name: "succeeding",
		Run: func(ctx context.Context) error {
			done <- struct{}{}
			return nil
		},
	}

	// a failing task must not take the worker down or block later tasks
	d.Enqueue(failing, succeeding)
	<-done
	<-done
	d.Stop()
}

func TestDispatcherStopDrainsQueue(t *testing.T) {
	d := NewDispatcher(1)

	var mu sync.Mutex
	count := 0
	for i := 0; i < 10; i++ {
		d.Enqueue(Task{
			Name: "counted",
			Run: func(ctx context.Context) error {
				mu.Lock()
				count++
				mu.Unlock()
				return nil
			},
		})
	}
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}
