package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptyResponse = errors.New("empty oracle response")
	ErrTrailingData  = errors.New("trailing data after JSON object")
)

// ParseError means the completion was not a single JSON object of the
// expected shape.
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return "unparseable oracle output: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError means the JSON parsed but violated the contract.
type SchemaError struct{ Err error }

func (e *SchemaError) Error() string { return "oracle output violates schema: " + e.Err.Error() }
func (e *SchemaError) Unwrap() error { return e.Err }

// Decode strictly parses raw into T: one JSON object, no unknown fields, no
// trailing data. Markdown code fences around the object are tolerated.
func Decode[T any](raw string, check func(*T) error) (T, error) {
	var v T

	body := stripFences(raw)
	if body == "" {
		return v, &ParseError{Err: ErrEmptyResponse}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, &ParseError{Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return v, &ParseError{Err: ErrTrailingData}
	}

	if check != nil {
		if err := check(&v); err != nil {
			return v, &SchemaError{Err: err}
		}
	}

	return v, nil
}

// StructCheck validates T with go-playground struct tags.
func StructCheck[T any](validate *validator.Validate) func(*T) error {
	return func(v *T) error {
		if err := validate.Struct(v); err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		return nil
	}
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// drop the opening fence line (``` or ```json)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}
