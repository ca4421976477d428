// Package validation wraps go-playground/validator so that every layer
// reports field errors the same way: a *model.ValidationError keyed by
// the JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/movie-booking/internal/model"
)

// Validate is the shared validator instance.  Field names in errors are
// taken from json tags.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns a *model.ValidationError on failure.
func Struct(s any) error {
	if err := Validate.Struct(s); err != nil {
		return Convert(err)
	}
	return nil
}

// Convert turns validator.ValidationErrors into a *model.ValidationError.
// Other errors are returned unchanged.
func Convert(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &model.ValidationError{Fields: make(map[string]string, len(ve))}
	for _, fe := range ve {
		if _, seen := out.Fields[fe.Field()]; !seen {
			out.Fields[fe.Field()] = Message(fe)
		}
	}
	return out
}

// Message renders a single field error.
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "datetime":
		return "must match layout " + fe.Param()
	}
	return "failed " + fe.Tag() + " validation"
}

// Echo adapts Validate to echo.Validator so handlers can call c.Validate.
type Echo struct{}

func (Echo) Validate(i interface{}) error { return Struct(i) }
