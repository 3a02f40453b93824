// Package monitor validates inbound request bodies against JSON schemas
// before they reach handler binding, so malformed requests fail with a
// field-level message instead of a partial decode.
package monitor

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ContractMonitor validates request bodies against one JSON schema.
type ContractMonitor struct {
	schema *gojsonschema.Schema
}

// NewContractMonitor compiles the given schema document. The schema is
// embedded in the binary; there is no runtime file dependency.
func NewContractMonitor(schemaJSON string) (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("error compiling schema: %w", err)
	}
	return &ContractMonitor{schema: schema}, nil
}

// Validate checks the request body against the schema. It returns true if
// valid, or false and the list of validation errors.
func (cm *ContractMonitor) Validate(requestBody []byte) (bool, []string, error) {
	res, err := cm.schema.Validate(gojsonschema.NewBytesLoader(requestBody))
	if err != nil {
		return false, nil, fmt.Errorf("error during validation: %w", err)
	}
	if res.Valid() {
		return true, nil, nil
	}
	var errs []string
	for _, desc := range res.Errors() {
		errs = append(errs, desc.String())
	}
	return false, errs, nil
}

// FormatErrors joins validation errors into a single message.
func FormatErrors(validationErrors []string) string {
	if len(validationErrors) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(validationErrors, "; ")
}
