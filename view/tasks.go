package view

import "runtime/debug"

// TaskQueue holds the work that must wait until rendered markup has been
// committed to the document, such as creating components.  Tasks run in the
// order added, on the goroutine that calls Run.
type TaskQueue struct {
	tasks []func()
}

// Add appends a task.
func (q *TaskQueue) Add(task func()) {
	q.tasks = append(q.tasks, task)
}

// Len returns the number of tasks waiting.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Run runs the waiting tasks, including any they add.  A task that panics
// is logged, and the rest still run.
func (q *TaskQueue) Run() {
	for len(q.tasks) > 0 {
		var task = q.tasks[0]
		q.tasks = q.tasks[1:]
		q.run(task)
	}
}

func (q *TaskQueue) run(task func()) {
	defer func() {
		if e := recover(); e != nil {
			Logger.Printf("task panicked: %v\n%s", e, debug.Stack())
		}
	}()
	task()
}
