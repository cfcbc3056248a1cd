package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/erazemk/zimmet/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// decodeJSON decodes a JSON request body into dest and validates its tags.
func decodeJSON(r *http.Request, dest any) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
		r.Body.Close()
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperr.Wrap(apperr.CodeValidation, err, "invalid request body").
			WithDetails([]apperr.FieldError{{Message: err.Error()}})
	}
	return validateStruct(dest)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.CodeValidation, err, "validation failed")
	}

	var all error
	for _, fe := range verrs {
		all = multierr.Append(all, apperr.Field(fieldPath(fe), validationMessage(fe)))
	}
	return apperr.Validation(all)
}

// fieldPath drops the struct name from the namespace: "req.item.brand"
// becomes "item.brand".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "unique":
		return "must not contain duplicates"
	}
	return "is invalid"
}
