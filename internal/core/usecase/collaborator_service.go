package usecase

import (
	"context"

	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/ports"
)

// CollaboratorService manages who else may use a graph. Only the owning
// tenant can change or read the list.
type CollaboratorService struct {
	graphs ports.GraphMutationStore
	store  ports.CollaboratorStore
}

func NewCollaboratorService(graphs ports.GraphMutationStore, store ports.CollaboratorStore) *CollaboratorService {
	return &CollaboratorService{graphs: graphs, store: store}
}

func (s *CollaboratorService) Add(ctx context.Context, tenant, graphID, username, actor string) (domain.Collaborator, error) {
	if err := s.ensureOwned(ctx, tenant, graphID); err != nil {
		return domain.Collaborator{}, err
	}
	if err := domain.ValidateUsername(username); err != nil {
		return domain.Collaborator{}, err
	}
	return s.store.AddWithEvent(ctx, tenant, domain.Collaborator{
		GraphID:  graphID,
		Username: username,
		AddedBy:  actorOrDefault(actor),
	})
}

func (s *CollaboratorService) List(ctx context.Context, tenant, graphID string) ([]domain.Collaborator, error) {
	if err := s.ensureOwned(ctx, tenant, graphID); err != nil {
		return nil, err
	}
	return s.store.List(ctx, graphID)
}

func (s *CollaboratorService) Remove(ctx context.Context, tenant, graphID, username, actor string) (bool, error) {
	if err := s.ensureOwned(ctx, tenant, graphID); err != nil {
		return false, err
	}
	if err := domain.ValidateUsername(username); err != nil {
		return false, err
	}
	return s.store.RemoveWithEvent(ctx, tenant, graphID, username, actorOrDefault(actor))
}

func (s *CollaboratorService) ensureOwned(ctx context.Context, tenant, graphID string) error {
	if err := domain.ValidateTenant(tenant); err != nil {
		return err
	}
	if err := domain.ValidateGraphID(graphID); err != nil {
		return err
	}
	_, err := s.graphs.Get(ctx, tenant, graphID)
	return err
}
