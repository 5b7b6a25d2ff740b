package queue

import (
	"container/heap"
	"fmt"
	"sync"
)

// Queue represents a queue where tasks to split
// tree nodes can be pushed and pulled. It is safe
// for concurrent use.
type Queue interface {
	// Push takes a task and stores it in the queue.
	// The task will count as pending.
	Push(*Task)
	// Pull removes and returns the best pending task,
	// or nil if there are no tasks to pull.
	Pull() *Task
	// Peek returns the best pending task without
	// removing it, or nil if there is none.
	Peek() *Task
	// Count returns the number of pending tasks
	Count() int
}

type memQueue struct {
	pendingTasks taskHeap
	lock         *sync.Mutex
}

type taskHeap []*Task

// New returns a queue backed only by the process memory
func New() Queue {
	return &memQueue{lock: &sync.Mutex{}}
}

func (mq *memQueue) Push(t *Task) {
	mq.lock.Lock()
	defer mq.lock.Unlock()
	heap.Push(&mq.pendingTasks, t)
}

func (mq *memQueue) Pull() *Task {
	mq.lock.Lock()
	defer mq.lock.Unlock()
	if len(mq.pendingTasks) == 0 {
		return nil
	}
	return heap.Pop(&mq.pendingTasks).(*Task)
}

func (mq *memQueue) Peek() *Task {
	mq.lock.Lock()
	defer mq.lock.Unlock()
	if len(mq.pendingTasks) == 0 {
		return nil
	}
	return mq.pendingTasks[0]
}

func (mq *memQueue) Count() int {
	mq.lock.Lock()
	defer mq.lock.Unlock()
	return len(mq.pendingTasks)
}

func (mq *memQueue) String() string {
	return fmt.Sprintf("{Queue pending: %d}", mq.Count())
}

func (th taskHeap) Len() int           { return len(th) }
func (th taskHeap) Less(i, j int) bool { return th[i].before(th[j]) }
func (th taskHeap) Swap(i, j int)      { th[i], th[j] = th[j], th[i] }

func (th *taskHeap) Push(x interface{}) {
	*th = append(*th, x.(*Task))
}

func (th *taskHeap) Pop() interface{} {
	old := *th
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*th = old[:n-1]
	return t
}
