package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

// Validator checks decoded request bodies against their `validate` tags and
// reports failures by JSON field name.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator that names fields after their json tag.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Check returns one ErrorField per failed rule, or nil when s is valid.
// Errors other than field violations are reported against "body".
func (v *Validator) Check(s any) []response.ErrorField {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []response.ErrorField{{Field: "body", Issue: err.Error()}}
	}

	out := make([]response.ErrorField, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, response.ErrorField{Field: fieldPath(fe), Issue: issue(fe)})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func issue(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field missing"
	case "email":
		return "must be an email address"
	case "datetime":
		return "must match " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gtfield":
		return "must be after " + strings.ToLower(fe.Param())
	default:
		return "failed " + fe.Tag() + " check"
	}
}
