package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alexanderramin/ordersync/internal/domain"
)

var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New()
	_ = inputValidate.RegisterValidation("ordercode", func(fl validator.FieldLevel) bool {
		return domain.IsFormatCodeValid(fl.Field().String())
	})
}

// ErrInvalidInput is wrapped by validation failures that carry no domain
// sentinel of their own.
var ErrInvalidInput = errors.New("invalid input")

// validateInput checks the struct tags of in. The first failing field is
// reported as a *domain.ValidationError.
func validateInput(in any) error {
	err := inputValidate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fe := verrs[0]
	verr := &domain.ValidationError{
		Field: strings.ToLower(fe.Field()),
		Value: fmt.Sprint(fe.Value()),
	}
	switch fe.Tag() {
	case "ordercode":
		verr.Err = domain.ErrInvalidCode
	case "required":
		verr.Value = ""
		verr.Err = fmt.Errorf("%w: is required", ErrInvalidInput)
	case "oneof":
		verr.Err = fmt.Errorf("%w: must be one of %s", ErrInvalidInput, fe.Param())
	default:
		verr.Err = fmt.Errorf("%w: failed %s %s", ErrInvalidInput, fe.Tag(), fe.Param())
	}
	return verr
}
