package usecase

import (
	"context"
	"strings"

	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/ports"
)

type CreateGraphRequest struct {
	GraphID     string             `json:"graphId"`
	Description string             `json:"description"`
	Schema      domain.GraphSchema `json:"schema"`
}

type GraphService struct {
	store   ports.GraphMutationStore
	schemas *SchemaService
}

func NewGraphService(store ports.GraphMutationStore, schemas *SchemaService) *GraphService {
	return &GraphService{store: store, schemas: schemas}
}

// Create validates the graph schema and stores the graph for tenant. A schema
// with any validation message is rejected with *domain.ErrSchemaViolation.
func (s *GraphService) Create(ctx context.Context, tenant string, req CreateGraphRequest, actor string) (domain.Graph, error) {
	if err := domain.ValidateTenant(tenant); err != nil {
		return domain.Graph{}, err
	}
	graphID := strings.TrimSpace(req.GraphID)
	if err := domain.ValidateGraphID(graphID); err != nil {
		return domain.Graph{}, err
	}
	if err := s.schemas.ValidateGraphSchema(req.Schema); err != nil {
		return domain.Graph{}, err
	}
	return s.store.CreateWithEvent(ctx, domain.Graph{
		GraphID:     graphID,
		Description: req.Description,
		Owner:       tenant,
		Status:      domain.GraphStatusDeployed,
		Schema:      req.Schema,
	}, actorOrDefault(actor))
}

func (s *GraphService) Get(ctx context.Context, tenant, graphID string) (domain.Graph, error) {
	if err := domain.ValidateTenant(tenant); err != nil {
		return domain.Graph{}, err
	}
	if err := domain.ValidateGraphID(graphID); err != nil {
		return domain.Graph{}, err
	}
	return s.store.Get(ctx, tenant, graphID)
}

func (s *GraphService) List(ctx context.Context, tenant string) ([]domain.Graph, error) {
	if err := domain.ValidateTenant(tenant); err != nil {
		return nil, err
	}
	return s.store.List(ctx, tenant)
}

func (s *GraphService) Delete(ctx context.Context, tenant, graphID, actor string) (bool, error) {
	if err := domain.ValidateTenant(tenant); err != nil {
		return false, err
	}
	if err := domain.ValidateGraphID(graphID); err != nil {
		return false, err
	}
	return s.store.DeleteWithEvent(ctx, tenant, graphID, actorOrDefault(actor))
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return "api"
	}
	return actor
}
