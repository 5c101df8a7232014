package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse decodes raw strictly into T and validates it.
// Missing or null input decodes as an empty object.
func Parse[T any](raw json.RawMessage) (T, error) {
	var in T

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return in, Errorf(CodeInvalidInput, "input must be a single JSON value")
	}

	if err := validate.Struct(in); err != nil {
		return in, validationError(err)
	}
	return in, nil
}

func decodeError(err error) *Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &Error{
			Code:    CodeInvalidInput,
			Message: "invalid input",
			Issues: []Issue{{
				Field:   typeErr.Field,
				Rule:    "type",
				Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}},
		}
	}

	msg := err.Error()
	if field, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		return &Error{
			Code:    CodeInvalidInput,
			Message: "invalid input",
			Issues:  []Issue{{Field: strings.Trim(field, `"`), Rule: "unknown", Message: "unknown field"}},
		}
	}

	return &Error{Code: CodeInvalidInput, Message: "malformed input", Err: err}
}

func validationError(err error) *Error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Code: CodeInvalidInput, Message: "invalid input", Err: err}
	}

	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: issueMessage(fe),
		})
	}
	return &Error{Code: CodeInvalidInput, Message: "invalid input", Issues: issues}
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email"
	default:
		return "failed " + fe.Tag()
	}
}
