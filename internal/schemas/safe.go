package schemas

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

var structValidator = validator.New()

// Validate checks v against the named schema and then against its
// struct validation tags.
func Validate(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return rootError(name, fmt.Sprintf("not encodable: %v", err))
	}
	if err := ValidateBytes(name, data); err != nil {
		return err
	}
	return validateStruct(v)
}

// ValidateBytes checks raw JSON against the named schema
func ValidateBytes(name string, data []byte) error {
	schema, err := Get(name)
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return rootError(name, err.Error())
	}
	return resultError(name, result)
}

// SafeParse returns v when it passes Validate and fallback otherwise. The
// error is returned alongside the fallback so callers can log it.
func SafeParse[T any](name string, v T, fallback T) (T, error) {
	if err := Validate(name, v); err != nil {
		return fallback, err
	}
	return v, nil
}

// Decode validates raw JSON against the named schema, decodes it into T and
// runs the struct validation tags.
func Decode[T any](name string, raw []byte) (T, error) {
	var out T
	if err := ValidateBytes(name, raw); err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, rootError(name, err.Error())
	}
	if err := validateStruct(out); err != nil {
		return out, err
	}
	return out, nil
}

func validateStruct(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return toValidationError(structValidator.Struct(rv.Interface()))
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := validateStruct(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{Errors: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
		})
	}
	return out
}
