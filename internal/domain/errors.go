package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateGlobalAdvance indicates a second report-global direct
	// advance assignment on the same element.
	ErrDuplicateGlobalAdvance = errors.New("cannot spread two advances in the same order element")

	// ErrDuplicateAdvanceType indicates a direct advance assignment whose type
	// is already used by the element, an ancestor or a descendant.
	ErrDuplicateAdvanceType = errors.New("duplicate advance assignment for order element")

	// ErrLabelInherited indicates the element or an ancestor already carries
	// the label.
	ErrLabelInherited = errors.New("some ancestor has the same label assigned, so this element is already inheriting this label")

	// ErrCriterionInherited indicates the criterion is already required by the
	// element or inherited from an ancestor.
	ErrCriterionInherited = errors.New("criterion requirement already inherited")

	// ErrAncestorScheduled indicates an element cannot become a scheduling
	// point because an ancestor already is one.
	ErrAncestorScheduled = errors.New("an ancestor is already a scheduling point")

	// ErrInvalidCode indicates an element code that is empty or contains "_".
	ErrInvalidCode = errors.New("invalid order element code")

	// ErrDuplicateCode indicates an element code already used in the order.
	ErrDuplicateCode = errors.New("code is already being used")

	// ErrNotLeaf indicates an operation only valid on leaves.
	ErrNotLeaf = errors.New("order element is not a leaf")

	// ErrNotGroup indicates an operation only valid on groups.
	ErrNotGroup = errors.New("order element is not a group")

	// ErrRootElement indicates an operation that cannot target the order root.
	ErrRootElement = errors.New("operation not allowed on the order root")
)

// DuplicateGlobalAdvanceError reports the element that already spreads a
// report-global advance.
type DuplicateGlobalAdvanceError struct {
	ElementCode string
}

func (e *DuplicateGlobalAdvanceError) Error() string {
	return fmt.Sprintf("%s (element %q)", ErrDuplicateGlobalAdvance, e.ElementCode)
}

func (e *DuplicateGlobalAdvanceError) Unwrap() error { return ErrDuplicateGlobalAdvance }

// DuplicateAdvanceTypeError reports the element where the conflicting
// advance type was found.
type DuplicateAdvanceTypeError struct {
	ElementCode string
	AdvanceType string
}

func (e *DuplicateAdvanceTypeError) Error() string {
	return fmt.Sprintf("%s (type %q already assigned at %q)", ErrDuplicateAdvanceType, e.AdvanceType, e.ElementCode)
}

func (e *DuplicateAdvanceTypeError) Unwrap() error { return ErrDuplicateAdvanceType }

// ValidationError is a recoverable rule violation on a single field.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IllegalStateError signals a programming error. It is raised with panic and
// never returned.
type IllegalStateError struct {
	Msg string
}

func (e *IllegalStateError) Error() string { return "illegal state: " + e.Msg }

func illegalState(format string, args ...any) {
	panic(&IllegalStateError{Msg: fmt.Sprintf(format, args...)})
}

// IllegalState panics with an *IllegalStateError. Exported for packages that
// share the fail-fast policy.
func IllegalState(format string, args ...any) {
	illegalState(format, args...)
}
