// Package assign picks task assignees from a configured candidate pool.
package assign

import (
	"context"
	"fmt"
	"time"

	"github.com/praxisflow/praxisflow/pkg/models"
)

// TaskCounter reports how many tasks were created since a point in time.
type TaskCounter interface {
	TaskCountSince(ctx context.Context, since time.Time) (int, error)
}

// Picker distributes tasks across candidates round-robin, using the recent
// task count as the rotation cursor.
type Picker struct {
	counter TaskCounter
	window  time.Duration
}

func NewPicker(counter TaskCounter) *Picker {
	return &Picker{
		counter: counter,
		window:  30 * 24 * time.Hour,
	}
}

// Pick returns the candidate the rotation lands on, or nil when there are no
// candidates. Concurrent picks can read the same count and land on the same
// candidate; assignment is advisory so the occasional double-up is tolerated
// rather than serialized behind a lock.
func (p *Picker) Pick(ctx context.Context, candidates []models.User) (*models.User, error) {
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &candidates[0], nil
	}

	count, err := p.counter.TaskCountSince(ctx, time.Now().Add(-p.window))
	if err != nil {
		return nil, fmt.Errorf("counting recent tasks: %w", err)
	}

	return &candidates[count%len(candidates)], nil
}
