package delivery

import "time"

// Task is a scheduled one-shot callback.
type Task interface {
	// Stop cancels the task and reports whether it had not yet run.
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// RealScheduler uses time.AfterFunc.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}
