package usecase

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/schema"
)

type SchemaKind string

const (
	SchemaKindElements SchemaKind = "elements"
	SchemaKindEntities SchemaKind = "entities"
	SchemaKindEdges    SchemaKind = "edges"
	SchemaKindTypes    SchemaKind = "types"
)

var ErrUnknownSchemaKind = errors.New("unknown schema kind")

//go:embed create_graph_request.schema.json
var createGraphRequestSchema []byte

// SchemaService validates graph schemas and the create-graph request envelope.
type SchemaService struct {
	request *santhosh.Schema
}

func NewSchemaService() (*SchemaService, error) {
	compiled, err := compileSchema(createGraphRequestSchema)
	if err != nil {
		return nil, fmt.Errorf("compile create graph request schema: %w", err)
	}
	return &SchemaService{request: compiled}, nil
}

// Validate runs the validator for kind over text.
func (s *SchemaService) Validate(kind SchemaKind, text string) (*schema.Notifications, error) {
	switch kind {
	case SchemaKindElements:
		return schema.NewElementsSchema(text).Validate().Notifications, nil
	case SchemaKindEntities:
		return schema.NewEntitiesSchema(text).Validate(), nil
	case SchemaKindEdges:
		return schema.NewEdgesSchema(text).Validate(), nil
	case SchemaKindTypes:
		return schema.NewTypesSchema(text).Validate(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchemaKind, kind)
	}
}

// ValidateGraphSchema checks elements then types and returns
// *domain.ErrSchemaViolation with every message found.
func (s *SchemaService) ValidateGraphSchema(gs domain.GraphSchema) error {
	n := schema.NewNotifications()
	n.Concat(schema.NewElementsSchema(string(gs.Elements)).Validate().Notifications)
	n.Concat(schema.NewTypesSchema(string(gs.Types)).Validate())
	if n.IsEmpty() {
		return nil
	}
	return &domain.ErrSchemaViolation{Errors: n.Messages()}
}

// DecodeCreateGraphRequest checks body against the request envelope schema
// and decodes it.
func (s *SchemaService) DecodeCreateGraphRequest(body json.RawMessage) (CreateGraphRequest, error) {
	if err := runValidation(s.request, body); err != nil {
		return CreateGraphRequest{}, err
	}
	var req CreateGraphRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return CreateGraphRequest{}, &domain.ErrSchemaViolation{Errors: []string{err.Error()}}
	}
	return req, nil
}

// compileSchema builds a *santhosh.Schema from raw JSON.
func compileSchema(schemaJSON []byte) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// runValidation validates data against a pre-compiled schema.
func runValidation(sch *santhosh.Schema, data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &domain.ErrSchemaViolation{Errors: []string{"request body is not valid JSON"}}
	}
	if err := sch.Validate(v); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ErrSchemaViolation{Errors: collectValidationErrors(ve)}
		}
		return &domain.ErrSchemaViolation{Errors: []string{err.Error()}}
	}
	return nil
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
