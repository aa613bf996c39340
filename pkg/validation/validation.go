// Package validation registers the custom binding tags used by request DTOs
// on gin's validator engine.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Register installs:
//
//	httpurl         absolute http(s) URL with a host
//	mediatype=image content type whose top-level type is the parameter
//
// and teaches the engine to compare decimal.Decimal fields with gt/gte/lte.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return RegisterOn(v)
}

func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("httpurl", validateHTTPURL); err != nil {
		return err
	}
	if err := v.RegisterValidation("mediatype", validateMediaType); err != nil {
		return err
	}
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return nil
}

func validateHTTPURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validateMediaType(fl validator.FieldLevel) bool {
	return strings.HasPrefix(strings.ToLower(fl.Field().String()), strings.ToLower(fl.Param())+"/")
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// Message renders the first validation failure as a client-facing sentence.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "httpurl":
		return fmt.Sprintf("%s must be a valid http(s) URL", field)
	case "mediatype":
		return fmt.Sprintf("%s must be a %s/* content type", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
