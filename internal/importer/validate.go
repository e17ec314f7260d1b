package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alexanderramin/ordersync/internal/domain"
)

const dateLayout = "2006-01-02"

var schemaValidate *validator.Validate

func init() {
	schemaValidate = validator.New()
	_ = schemaValidate.RegisterValidation("ordercode", validateOrderCode)
}

func validateOrderCode(fl validator.FieldLevel) bool {
	return domain.IsFormatCodeValid(fl.Field().String())
}

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateStruct("order", &schema.Order)...)

	if len(schema.Elements) == 0 {
		errs = append(errs, fmt.Errorf("elements: at least one element is required"))
	}
	codes := map[string]bool{schema.Order.Code: true}
	kinds := map[string]string{schema.Order.Code: string(domain.KindGroup)}
	scheduled := map[string]bool{}
	parents := map[string]string{}
	for i, e := range schema.Elements {
		prefix := fmt.Sprintf("elements[%d]", i)
		errs = append(errs, validateStruct(prefix, &e)...)

		if e.Code != "" {
			if codes[e.Code] {
				errs = append(errs, fmt.Errorf("%s.code: duplicate code %q", prefix, e.Code))
			}
			codes[e.Code] = true
			kinds[e.Code] = e.Kind
		}

		parent := schema.Order.Code
		if e.ParentCode != nil && *e.ParentCode != "" {
			parent = *e.ParentCode
			if !codes[parent] || parent == e.Code {
				errs = append(errs, fmt.Errorf("%s.parent_code: code %q not found (must appear earlier in elements list)", prefix, parent))
			} else if kinds[parent] != string(domain.KindGroup) {
				errs = append(errs, fmt.Errorf("%s.parent_code: %q is a leaf and cannot have children", prefix, parent))
			}
		}
		parents[e.Code] = parent

		if e.Kind == string(domain.KindGroup) && len(e.Hours) > 0 {
			errs = append(errs, fmt.Errorf("%s.hours: only leaves carry hours groups", prefix))
		}
		if e.Schedule {
			for cur := parent; cur != ""; cur = parents[cur] {
				if scheduled[cur] {
					errs = append(errs, fmt.Errorf("%s.schedule: %w (%q)", prefix, domain.ErrAncestorScheduled, cur))
					break
				}
			}
			scheduled[e.Code] = true
		}

		errs = append(errs, validateOptionalDate(prefix+".init_date", e.InitDate)...)
		errs = append(errs, validateOptionalDate(prefix+".deadline", e.Deadline)...)
	}

	return errs
}

// validateStruct runs the struct tags of v and reports each failure with
// its lower-cased field path under prefix.
func validateStruct(prefix string, v any) []error {
	err := schemaValidate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{fmt.Errorf("%s: %w", prefix, err)}
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		field = strings.ToLower(field)
		switch fe.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%s.%s is required", prefix, field))
		case "ordercode":
			errs = append(errs, fmt.Errorf("%s.%s: %w %q", prefix, field, domain.ErrInvalidCode, fe.Value()))
		default:
			errs = append(errs, fmt.Errorf("%s.%s: invalid value %v (%s)", prefix, field, fe.Value(), fe.Tag()))
		}
	}
	return errs
}

func validateOptionalDate(field string, dateStr *string) []error {
	if dateStr == nil || *dateStr == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, *dateStr); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, *dateStr)}
	}
	return nil
}
