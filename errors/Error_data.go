package errors

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrDataI is an interface for error data that can be set, retrieved, and encoded.
type ErrDataI interface {
	EncodeErrorData() []byte
	Error() string
	GetData(key string) interface{}
	SetData(key string, value interface{})
}

// ErrData is a generic error data structure that implements the ErrDataI interface.
type ErrData map[string]interface{}

// Error returns a string representation of the error data.
func (e *ErrData) Error() string {
	return fmt.Sprintf(" %v", *e)
}

// SetData sets a key-value pair in the error data.
func (e *ErrData) SetData(key string, value interface{}) {
	if e == nil {
		return
	}

	(*e)[key] = value
}

// GetData retrieves the value associated with a key in the error data.
func (e *ErrData) GetData(key string) interface{} {
	if e == nil {
		return nil
	}

	return (*e)[key]
}

// EncodeErrorData encodes the error data to a byte slice using JSON encoding.
func (e *ErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// FieldErrData names the first field of a JSON document that failed schema validation.
type FieldErrData struct {
	Document string `json:"document"`
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Missing  bool   `json:"missing"`
}

func (e *FieldErrData) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s: missing required field %q (%s)", e.Document, e.Field, e.Expected)
	}

	return fmt.Sprintf("%s: field %q must be %s", e.Document, e.Field, e.Expected)
}

func (e *FieldErrData) GetData(key string) interface{} {
	switch key {
	case "document":
		return e.Document
	case "field":
		return e.Field
	case "expected":
		return e.Expected
	case "missing":
		return e.Missing
	}

	return nil
}

func (e *FieldErrData) SetData(string, interface{}) {}

func (e *FieldErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// NewFieldError returns a configuration or document error carrying the offending field.
func NewFieldError(code ERR, document, field, expected string, missing bool) error {
	data := &FieldErrData{
		Document: document,
		Field:    field,
		Expected: expected,
		Missing:  missing,
	}

	return New(code, "invalid %s document", document).WithData(data)
}

// GetErrorData retrieves error data based on the error code and unmarshals it from a byte slice.
func GetErrorData(code ERR, dataBytes []byte) (ErrDataI, error) {
	var errData ErrDataI

	switch code {
	case ERR_CONFIGURATION, ERR_MINERID_DOCUMENT_FORMAT:
		errData = &FieldErrData{}
	default:
		errData = &ErrData{}
	}

	if err := json.Unmarshal(dataBytes, errData); err != nil {
		return errData, err
	}

	return errData, nil
}
