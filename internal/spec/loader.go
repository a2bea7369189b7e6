package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrorCode categorizes document errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or document section
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Load hands a generated document to the kin-openapi loader so that it can be
// inspected and validated with the same machinery used for hand-written specs.
// Only 3.0.x documents are supported by the loader.
func Load(ctx context.Context, doc *Document) (*openapi3.T, error) {
	if doc == nil {
		return nil, &SpecError{Code: InputError, Message: "spec: nil document"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(doc.OpenAPI, "3.1") {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: OpenAPI %s cannot be loaded by kin-openapi", doc.OpenAPI)}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("encode document: %v", err), Cause: err}
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loaded, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, mapValidateOrParseErr(err, "document")
	}
	return loaded, nil
}

// Validate performs OpenAPI structural validation of a 3.0.x document. 3.1
// documents are skipped and reported as valid.
func Validate(ctx context.Context, doc *Document) error {
	if doc != nil && strings.HasPrefix(doc.OpenAPI, "3.1") {
		return nil
	}
	loaded, err := Load(ctx, doc)
	if err != nil {
		return err
	}
	if err := loaded.Validate(ctx); err != nil {
		return mapValidateOrParseErr(err, "document")
	}
	return nil
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	// Heuristics: some loader errors are parse errors.
	if strings.Contains(strings.ToLower(err.Error()), "parse") || strings.Contains(strings.ToLower(err.Error()), "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	// Unwrap MultiError and take the first for brevity.
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	// Fallback: parse from error message if a pointer literal appears.
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}
