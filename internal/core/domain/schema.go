package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrSchemaViolation is returned when a submitted graph schema fails
// validation. Errors keeps the messages in the order they were found.
type ErrSchemaViolation struct {
	Errors []string
}

func (e *ErrSchemaViolation) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Errors, "; "))
}

// GraphSchema is the schema a graph is created with: the elements root
// (entities, edges, visibilityProperty) and the types map, both kept as the
// JSON text the caller sent.
type GraphSchema struct {
	Elements json.RawMessage `json:"elements"`
	Types    json.RawMessage `json:"types"`
}
