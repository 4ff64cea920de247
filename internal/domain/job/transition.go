package job

import (
	"fmt"
	"time"
)

// allowed[from] lists the statuses reachable from it. Archived is terminal.
var allowed = map[Status][]Status{
	StatusOpen:     {StatusClosed, StatusArchived},
	StatusClosed:   {StatusOpen, StatusArchived},
	StatusArchived: nil,
}

func CanTransition(from, to Status) error {
	for _, next := range allowed[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Transition moves j to the target status. Archiving stamps the soft-delete
// marker; nothing else touches DeletedAt.
func (j *Job) Transition(to Status, now time.Time) error {
	if err := CanTransition(j.Status, to); err != nil {
		return err
	}

	now = now.UTC()
	j.Status = to
	j.UpdatedAt = now

	if to == StatusArchived {
		j.DeletedAt = &now
	}
	return nil
}
