package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks the runs of a sweep.
type ProgressBar struct {
	mu sync.Mutex

	id         string
	name       string
	startTime  time.Time
	total      uint64
	finished   uint64
	inProgress uint64
}

// progressStatus is the JSON form of a ProgressBar.
type progressStatus struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finished += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inProgress -= amount
	b.finished += amount
}

// Counts returns the number of finished and in-progress items.
func (b *ProgressBar) Counts() (finished, inProgress uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.finished, b.inProgress
}

func (b *ProgressBar) status() progressStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	return progressStatus{
		ID:         b.id,
		Name:       b.name,
		StartTime:  b.startTime,
		Total:      b.total,
		Finished:   b.finished,
		InProgress: b.inProgress,
	}
}
