// Package verification implements the member identity verification wizard:
// the answers collected across steps, the per-step validator and the
// controller that moves between steps and runs the final submission.
package verification

import (
	"fmt"
	"strings"
)

// Field names a single answer in the form. The string values match the keys
// used in field error maps and in the submission payload.
type Field string

const (
	FieldName        Field = "name"
	FieldEmail       Field = "email"
	FieldPhoneNumber Field = "phoneNumber"
	FieldIDType      Field = "idType"
	FieldIDNumber    Field = "idNumber"
	FieldDocument    Field = "document"
)

// Label returns the human-readable label shown next to the field.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return "Full Name"
	case FieldEmail:
		return "Email"
	case FieldPhoneNumber:
		return "Phone Number"
	case FieldIDType:
		return "ID Type"
	case FieldIDNumber:
		return "ID Number"
	case FieldDocument:
		return "Document"
	}
	return string(f)
}

// DocumentSource records how a document was obtained.
type DocumentSource string

const (
	SourceLibrary DocumentSource = "library"
	SourceCamera  DocumentSource = "camera"
)

// Document is an opaque reference to a locally selected image.
type Document struct {
	URI    string         `json:"uri" yaml:"uri"`
	Name   string         `json:"name" yaml:"name"`
	Source DocumentSource `json:"source" yaml:"source"`
}

// Form is the accumulated answer set across all wizard steps.
type Form struct {
	Name        string
	Email       string
	PhoneNumber string
	IDType      IDType
	IDNumber    string
	Document    *Document
}

// Clone returns a copy that shares no pointers with f.
func (f Form) Clone() Form {
	out := f
	if f.Document != nil {
		doc := *f.Document
		out.Document = &doc
	}
	return out
}

// Value returns the display value of a field. The document is shown by name.
func (f Form) Value(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldPhoneNumber:
		return f.PhoneNumber
	case FieldIDType:
		return string(f.IDType)
	case FieldIDNumber:
		return f.IDNumber
	case FieldDocument:
		if f.Document == nil {
			return ""
		}
		if f.Document.Name != "" {
			return f.Document.Name
		}
		return f.Document.URI
	}
	return ""
}

// set assigns a text field. The document is not a text field.
func (f *Form) set(field Field, value string) error {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldPhoneNumber:
		f.PhoneNumber = value
	case FieldIDType:
		f.IDType = IDType(value)
	case FieldIDNumber:
		f.IDNumber = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// FieldErrors maps a field to its validation message. An empty map means
// the checked fields are valid. FieldErrors doubles as the error returned by
// Controller.NextStep when a step does not pass.
type FieldErrors map[Field]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	parts := make([]string, 0, len(e))
	for _, f := range fieldOrder {
		if msg, ok := e[f]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Clone returns an independent copy of e.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Fields returns the fields with errors in form order.
func (e FieldErrors) Fields() []Field {
	var out []Field
	for _, f := range fieldOrder {
		if _, ok := e[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

var fieldOrder = []Field{
	FieldName, FieldEmail, FieldPhoneNumber,
	FieldIDType, FieldIDNumber,
	FieldDocument,
}

// Fields returns every form field in display order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}
