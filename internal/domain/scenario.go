package domain

import "time"

// OrderVersion identifies a scenario's snapshot of scheduling bindings. It is
// compared only for equality.
type OrderVersion string

// Scenario is a named, independently versioned what-if plan of an order.
type Scenario struct {
	ID        string
	OrderID   string
	Name      string
	Version   OrderVersion
	ParentID  string // scenario this one was forked from, empty for the base
	CreatedAt time.Time
}

// IsBase reports whether the scenario was not forked from another one.
func (s *Scenario) IsBase() bool {
	return s.ParentID == ""
}

// BaseVersion is the version of the scenario every order starts with.
const BaseVersion OrderVersion = "base"
