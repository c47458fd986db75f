package verification

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed envelope.schema.json
var envelopeSchemaJSON []byte

var envelopeSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(envelopeSchemaJSON))
})

// SchemaError lists the ways an envelope departs from the payload schema.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "submission does not match schema: " + strings.Join(e.Problems, "; ")
}

// Validate checks the envelope against the payload schema. A mismatch is
// reported as *SchemaError.
func (e Envelope) Validate() error {
	schema, err := envelopeSchema()
	if err != nil {
		return fmt.Errorf("compiling submission schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(e))
	if err != nil {
		return fmt.Errorf("validating submission: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, re.String())
	}
	return &SchemaError{Problems: problems}
}
