package procz

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/zoobzio/capitan"
)

// Record is the normalized, loggable representation of any processing
// failure. Taxonomy errors contribute their kind and context entries;
// anything else is recorded under its concrete type name with no entries.
type Record struct {
	Fields  map[string]any
	Message string
	Context string
	Kind    Kind
}

// MarshalJSON flattens the record into a single object: the failure's
// context entries first, then the fixed kind/message/context keys. On a key
// collision the fixed fields always win.
func (r Record) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		flat[k] = v
	}
	flat["kind"] = r.Kind
	flat["message"] = r.Message
	flat["context"] = r.Context
	return json.Marshal(flat)
}

// Classify normalizes a failure into a Record and emits exactly one
// error-level signal recording where it was observed. It has no other side
// effects.
//
// Taxonomy errors (including wrapped ones) keep their kind and context
// entries. Any other error is classified under its concrete type name with
// an empty context.
func Classify(ctx context.Context, err error, contextName string) Record {
	kind := KindUnexpected
	fields := map[string]any{}

	var perr *Error
	if errors.As(err, &perr) {
		kind = perr.Kind
		for k, v := range perr.Context {
			fields[k] = v
		}
	} else if err != nil {
		kind = Kind(typeName(err))
	}

	message := ""
	if err != nil {
		message = err.Error()
	}

	capitan.Error(ctx, SignalErrorClassified,
		FieldContext.Field(contextName),
		FieldKind.Field(string(kind)),
		FieldError.Field(message),
	)

	return Record{
		Kind:    kind,
		Message: message,
		Context: contextName,
		Fields:  fields,
	}
}

// typeName reports the concrete type name of an error, dereferencing
// pointers so *fs.PathError classifies as "PathError".
func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
