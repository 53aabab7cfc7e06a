package worker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingTask struct {
	preCalls, threadCalls, postCalls int32
	preDone, threadDone              int32 // number of calls before returning done
	postNeeded                       int32 // number of Post calls required to finish
	order                            *[]int
	id                               int
}

func (t *countingTask) Pre() bool {
	n := atomic.AddInt32(&t.preCalls, 1)
	return n >= t.preDone
}

func (t *countingTask) Thread() bool {
	n := atomic.AddInt32(&t.threadCalls, 1)
	return n >= t.threadDone
}

func (t *countingTask) Post() bool {
	n := atomic.AddInt32(&t.postCalls, 1)
	done := n >= t.postNeeded
	if done && t.order != nil {
		*t.order = append(*t.order, t.id)
	}
	return done
}

func TestAddTaskRunsPreOnCaller(t *testing.T) {
	task := &countingTask{preDone: 3, threadDone: 1, postNeeded: 1}
	pool := NewThreadPool(nil)
	pool.AddTask(task)
	require.EqualValues(t, 3, task.preCalls)
}

func TestThreadPoolDrainsAndCompletes(t *testing.T) {
	pool := NewThreadPool(nil)
	pool.Start(2)

	tasks := make([]*countingTask, 10)
	for i := range tasks {
		tasks[i] = &countingTask{preDone: 1, threadDone: 1, postNeeded: 1}
		pool.AddTask(tasks[i])
	}

	require.Eventually(t, func() bool {
		return pool.OutputLen() == 10
	}, time.Second, time.Millisecond)

	pool.RequestStop()
	pool.Join()

	for pool.OutputLen() > 0 {
		pool.RunPost()
	}
	for _, task := range tasks {
		require.EqualValues(t, 1, task.postCalls)
	}
}

func TestRunPostBudgetAndOrdering(t *testing.T) {
	pool := NewThreadPool(nil)
	var order []int
	const tasks = 6
	queued := make([]*countingTask, tasks)
	for i := 0; i < tasks; i++ {
		queued[i] = &countingTask{postNeeded: 1 << 30, order: &order, id: i}
		pool.pushOutputBack(queued[i])
	}
	totalPostCalls := func() (n int32) {
		for _, q := range queued {
			n += q.postCalls
		}
		return n
	}

	// Simulate wall-clock advancing by 1us per clock read, so each RunPost's
	// busy-loop eventually trips its deadline instead of spinning forever.
	var calls int64
	pool.clock = func() time.Time {
		calls++
		return time.Unix(0, calls*int64(time.Microsecond))
	}

	progressedEveryCall := true
	stayedQueued := true
	for i := 0; i < tasks*3; i++ {
		before := pool.OutputLen()
		if before == 0 {
			break
		}
		postsBefore := totalPostCalls()
		pool.RunPost()
		// At least one task must make progress (its Post call count rises)
		// per call, and the unfinished task returns to the queue, so the
		// backlog size itself never shrinks for tasks that never finish.
		if totalPostCalls() <= postsBefore {
			progressedEveryCall = false
		}
		if pool.OutputLen() != before {
			stayedQueued = false
		}
	}
	require.True(t, progressedEveryCall, "every RunPost call must advance at least one task's Post")
	require.True(t, stayedQueued, "tasks that never complete must stay queued, not vanish")
	require.Equal(t, tasks, pool.OutputLen())
	// The unfinished task goes back to the front, so queue order is unchanged.
	for i, task := range pool.output {
		require.Equal(t, i, task.(*countingTask).id)
	}
}

func TestPostDeadlineGrowsWithBacklog(t *testing.T) {
	require.Equal(t, baseDeadline, postDeadline(1))
	require.Equal(t, baseDeadline, postDeadline(4))
	require.Equal(t, baseDeadline+5*time.Millisecond, postDeadline(5))
	require.Equal(t, baseDeadline+25*time.Millisecond, postDeadline(9))
}

func TestThreadPanicMarksTaskDone(t *testing.T) {
	task := &panickingThreadTask{}
	pool := NewThreadPool(nil)
	pool.Start(1)
	pool.AddTask(task)
	require.Eventually(t, func() bool { return pool.OutputLen() == 1 }, time.Second, time.Millisecond)
	pool.RequestStop()
	pool.Join()
}

type panickingThreadTask struct{}

func (p *panickingThreadTask) Pre() bool    { return true }
func (p *panickingThreadTask) Thread() bool { panic("boom") }
func (p *panickingThreadTask) Post() bool   { return true }
