package domain

import "errors"

// ErrDuplicateQualityForm indicates a quality form already attached to the
// element.
var ErrDuplicateQualityForm = errors.New("quality form already exists")

// TaskQualityForm attaches a named quality form to an element.
type TaskQualityForm struct {
	FormName string
}

// AddQualityForm attaches the form named name to id.
func (o *Order) AddQualityForm(id NodeID, name string) (TaskQualityForm, error) {
	e := o.MustElement(id)
	for _, each := range e.QualityForms {
		if each.FormName == name {
			return TaskQualityForm{}, &ValidationError{Field: "name", Value: name, Err: ErrDuplicateQualityForm}
		}
	}
	tqf := TaskQualityForm{FormName: name}
	e.QualityForms = append(e.QualityForms, tqf)
	return tqf, nil
}

// RemoveQualityForm detaches the form named name from id.
func (o *Order) RemoveQualityForm(id NodeID, name string) {
	e := o.MustElement(id)
	kept := e.QualityForms[:0]
	for _, each := range e.QualityForms {
		if each.FormName != name {
			kept = append(kept, each)
		}
	}
	e.QualityForms = kept
}
