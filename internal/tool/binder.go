package tool

import (
	"bytes"
	"encoding/json"
	"maps"
)

// Validatable is implemented by argument structs with rules the schema cannot express.
// Validate runs after the schema check and decoding; a value or pointer receiver works.
type Validatable interface {
	Validate() error
}

// Binder holds the schema of argument type T and decodes raw arguments through both
// validation layers. The CLI uses it to check flag-built arguments exactly as the
// agent's arguments are checked.
type Binder[T any] struct {
	schema *argSchema
}

// NewBinder builds the schema of T. See WithStrict for the strict flag.
func NewBinder[T any](strict bool) (*Binder[T], error) {
	s, err := reflectSchema[T](strict)
	if err != nil {
		return nil, err
	}
	return &Binder[T]{schema: s}, nil
}

// Schema returns a copy of the top-level schema keys. Nested maps are shared and must
// not be mutated.
func (b *Binder[T]) Schema() map[string]any {
	return maps.Clone(b.schema.doc)
}

// ParseAndValidate decodes argsJSON into T. Blank input counts as {} since agents tend
// to omit arguments for tools that take none. Every failure is a ClientError.
func (b *Binder[T]) ParseAndValidate(argsJSON []byte) (T, error) {
	var args T
	if len(bytes.TrimSpace(argsJSON)) == 0 {
		argsJSON = []byte("{}")
	}

	var generic any
	if err := json.Unmarshal(argsJSON, &generic); err != nil {
		return args, wrapJSONParseError(err)
	}
	if err := b.schema.resolved.Validate(generic); err != nil {
		return args, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return args, wrapJSONParseError(err)
	}

	if err := validateArgs(&args); err != nil {
		var zero T
		if IsClientError(err) {
			return zero, err
		}
		return zero, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return args, nil
}

// validateArgs calls Validate once, on the value receiver when T implements Validatable
// and on the pointer receiver otherwise.
func validateArgs[T any](args *T) error {
	if v, ok := any(*args).(Validatable); ok {
		return v.Validate()
	}
	if v, ok := any(args).(Validatable); ok {
		return v.Validate()
	}
	return nil
}
