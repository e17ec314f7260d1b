package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/google/uuid"
)

var testCodeCounter atomic.Int64

// UniqueCode returns prefix with a process-wide counter appended, so codes
// never collide across tests sharing a database.
func UniqueCode(prefix string) string {
	return fmt.Sprintf("%s%03d", prefix, testCodeCounter.Add(1))
}

// Order options
type OrderOption func(*domain.Order)

func WithDescription(d string) OrderOption {
	return func(o *domain.Order) {
		o.Description = d
	}
}

func WithCreatedAt(t time.Time) OrderOption {
	return func(o *domain.Order) {
		o.CreatedAt = t
		o.UpdatedAt = t
	}
}

func NewTestOrder(code string, opts ...OrderOption) *domain.Order {
	now := time.Now().UTC().Truncate(time.Second)
	o := domain.NewOrder(uuid.New().String(), code, "Order "+code, now)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Element options
type ElementOption func(*domain.OrderElement)

func WithInitDate(d time.Time) ElementOption {
	return func(e *domain.OrderElement) {
		e.InitDate = &d
	}
}

func WithDeadline(d time.Time) ElementOption {
	return func(e *domain.OrderElement) {
		e.Deadline = &d
	}
}

func WithName(name string) ElementOption {
	return func(e *domain.OrderElement) {
		e.Name = name
	}
}

func WithHoursGroup(code string, hours int) ElementOption {
	return func(e *domain.OrderElement) {
		e.HoursGroups = append(e.HoursGroups, domain.HoursGroup{
			ID:           uuid.New().String(),
			Code:         code,
			WorkingHours: hours,
		})
	}
}

func NewTestLeaf(code string, hours int, opts ...ElementOption) *domain.OrderElement {
	now := time.Now().UTC().Truncate(time.Second)
	e := &domain.OrderElement{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      "Leaf " + code,
		Kind:      domain.KindLeaf,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if hours > 0 {
		WithHoursGroup(code+"-HG", hours)(e)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func NewTestGroup(code string, opts ...ElementOption) *domain.OrderElement {
	now := time.Now().UTC().Truncate(time.Second)
	e := &domain.OrderElement{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      "Group " + code,
		Kind:      domain.KindGroup,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func NewTestAdvanceType(unitName string) *domain.AdvanceType {
	return &domain.AdvanceType{
		ID:              uuid.New().String(),
		UnitName:        unitName,
		DefaultMaxValue: 100,
		Percentage:      true,
	}
}

// SampleOrder is an order with the tree
//
//	ROOT -> {G -> {A(10h), B(30h)}, C(20h)}
//
// and its element slots by short name. Codes are unique per call.
type SampleOrder struct {
	Order *domain.Order
	Nodes map[string]domain.NodeID
	Codes map[string]string
}

// NewSampleOrder builds a SampleOrder. It panics on tree errors, which only
// a broken fixture can produce.
func NewSampleOrder() *SampleOrder {
	prefix := UniqueCode("S")
	s := &SampleOrder{
		Order: NewTestOrder(prefix),
		Nodes: make(map[string]domain.NodeID),
		Codes: make(map[string]string),
	}
	s.Nodes["ROOT"] = s.Order.Root()
	s.Codes["ROOT"] = prefix
	s.add("ROOT", "G", NewTestGroup(prefix+"-G"))
	s.add("G", "A", NewTestLeaf(prefix+"-A", 10))
	s.add("G", "B", NewTestLeaf(prefix+"-B", 30))
	s.add("ROOT", "C", NewTestLeaf(prefix+"-C", 20))
	return s
}

func (s *SampleOrder) add(parent, name string, e *domain.OrderElement) {
	id, err := s.Order.Attach(s.Nodes[parent], e)
	if err != nil {
		panic(fmt.Sprintf("sample order: %v", err))
	}
	s.Nodes[name] = id
	s.Codes[name] = e.Code
}

// Element returns the element with the given short name.
func (s *SampleOrder) Element(name string) *domain.OrderElement {
	return s.Order.MustElement(s.Nodes[name])
}
