// Package outbox models the post-commit side effects of a mutation as an
// explicit task list drained by a background worker pool. Cascade deletes,
// blob cleanup, realtime pushes and emails all run here: best-effort,
// never retried, and never able to fail the committed operation.
package outbox

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task is one deferred side effect. Run errors are logged and swallowed.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Dispatcher struct {
	workers  int
	jobQueue chan Task
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewDispatcher(workers int) *Dispatcher {
	if workers < 1 {
		workers = 5
	}
	d := &Dispatcher{
		workers:  workers,
		jobQueue: make(chan Task, 100),
		stopChan: make(chan struct{}),
	}
	d.startWorkers()
	return d
}

func (d *Dispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case task := <-d.jobQueue:
			d.processTask(task)
		case <-d.stopChan:
			// drain whatever is still queued before exiting
			for {
				select {
				case task := <-d.jobQueue:
					d.processTask(task)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) processTask(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := task.Run(ctx); err != nil {
		log.Printf("Outbox task %s failed: %v", task.Name, err)
	}
}

// Enqueue hands tasks to the worker pool. A full queue drops the tasks
// after a short wait; losing a best-effort side effect is acceptable,
// blocking the request path is not.
func (d *Dispatcher) Enqueue(tasks ...Task) {
	for _, task := range tasks {
		select {
		case d.jobQueue <- task:
		case <-time.After(5 * time.Second):
			log.Printf("Failed to queue outbox task %s: queue full", task.Name)
		}
	}
}

// Stop shuts the pool down after draining queued tasks.
func (d *Dispatcher) Stop() {
	log.Println("Stopping outbox dispatcher...")
	close(d.stopChan)
	d.wg.Wait()
	log.Println("Outbox dispatcher stopped")
}
