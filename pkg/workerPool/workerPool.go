package workerpool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// WorkerPool runs check tasks on a fixed set of goroutines. Tasks are
// grouped into rooms; a room collects the errors of its own tasks.
type WorkerPool struct {
	config    Config
	taskQueue chan Task
	workers   sync.WaitGroup
	closeOnce sync.Once
}

type Config struct {
	WorkerCount  int
	GlobalBuffer int
}

// Room is one batch of tasks whose errors are collected together.
type Room struct {
	errs  []error
	errMu sync.Mutex
	wg    sync.WaitGroup
	wp    *WorkerPool
}

type Task struct {
	run  func() error
	room *Room
}

var ErrPoolFull = errors.New("workerpool: global buffer is full")

func NewWorkerPool(config Config) *WorkerPool {
	if config.WorkerCount < 1 {
		config.WorkerCount = runtime.NumCPU()
	}

	if config.GlobalBuffer < 1 {
		config.GlobalBuffer = 1024
	}

	wp := &WorkerPool{
		config:    config,
		taskQueue: make(chan Task, config.GlobalBuffer),
	}

	wp.workers.Add(config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.workers.Done()
	for t := range wp.taskQueue {
		err := t.run()
		if err != nil {
			t.room.errMu.Lock()
			t.room.errs = append(t.room.errs, err)
			t.room.errMu.Unlock()
		}
		t.room.wg.Done()
	}
}

// Close stops the workers after the queued tasks have run.
func (wp *WorkerPool) Close() {
	wp.closeOnce.Do(func() {
		close(wp.taskQueue)
		wp.workers.Wait()
	})
}

func (wp *WorkerPool) CreateRoom() *Room {
	return &Room{wp: wp}
}

// NewTaskWaitForFreeSlot queues job and blocks while the global buffer is
// full.
func (ro *Room) NewTaskWaitForFreeSlot(job func() error) {
	ro.wg.Add(1)
	ro.wp.taskQueue <- Task{run: job, room: ro}
}

// NewTask queues job or fails when the global buffer is full.
func (ro *Room) NewTask(job func() error) error {
	if len(ro.wp.taskQueue) == cap(ro.wp.taskQueue) {
		return fmt.Errorf("%w: %d tasks queued", ErrPoolFull, cap(ro.wp.taskQueue))
	}

	ro.NewTaskWaitForFreeSlot(job)

	return nil
}

// Collect waits for every task of the room and returns their errors joined,
// or nil when all succeeded.
func (ro *Room) Collect() error {
	ro.wg.Wait()

	ro.errMu.Lock()
	defer ro.errMu.Unlock()

	return errors.Join(ro.errs...)
}
