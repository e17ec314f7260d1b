package domain

import "time"

// Task is the scheduling subsystem's view of a task source for one version:
// a leaf task carrying work hours or a group task summing its members.
type Task struct {
	ID           string
	OrderID      string
	Version      OrderVersion
	ElementID    string
	TaskSourceID string
	ParentID     string // group task this one belongs to, empty at the top
	Group        bool
	Name         string
	WorkHours    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
