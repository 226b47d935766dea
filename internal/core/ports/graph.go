package ports

import (
	"context"

	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
)

// GraphMutationStore persists graphs and writes the matching outbox event in
// the same transaction.
type GraphMutationStore interface {
	CreateWithEvent(ctx context.Context, graph domain.Graph, actor string) (domain.Graph, error)
	DeleteWithEvent(ctx context.Context, owner, graphID, actor string) (bool, error)
	Get(ctx context.Context, owner, graphID string) (domain.Graph, error)
	List(ctx context.Context, owner string) ([]domain.Graph, error)
}

type CollaboratorStore interface {
	AddWithEvent(ctx context.Context, owner string, collaborator domain.Collaborator) (domain.Collaborator, error)
	RemoveWithEvent(ctx context.Context, owner, graphID, username, actor string) (bool, error)
	List(ctx context.Context, graphID string) ([]domain.Collaborator, error)
}
