package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/gaasapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
)

type collaboratorModel struct {
	GraphID   string    `gorm:"column:graph_id;primaryKey"`
	Username  string    `gorm:"column:username;primaryKey"`
	AddedBy   string    `gorm:"column:added_by;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (collaboratorModel) TableName() string {
	return "graph_collaborators"
}

type CollaboratorStore struct {
	db *gormsqlite.DB
}

func NewCollaboratorStore(db *gormsqlite.DB) *CollaboratorStore {
	return &CollaboratorStore{db: db}
}

func (s *CollaboratorStore) AddWithEvent(ctx context.Context, owner string, c domain.Collaborator) (domain.Collaborator, error) {
	now := time.Now().UTC()
	model := collaboratorModel{
		GraphID:   c.GraphID,
		Username:  c.Username,
		AddedBy:   c.AddedBy,
		CreatedAt: now,
	}

	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var count int64
		err := tx.Model(&collaboratorModel{}).
			Where("graph_id = ? AND username = ?", c.GraphID, c.Username).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("check collaborator: %w", err)
		}
		if count > 0 {
			return domain.ErrAlreadyExists
		}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert collaborator: %w", err)
		}
		return enqueueEvent(tx, domain.EventCollaboratorAdded, owner, c.GraphID, c.AddedBy, map[string]any{
			"username": c.Username,
		}, now)
	})
	if err != nil {
		return domain.Collaborator{}, err
	}
	return toCollaboratorDomain(model), nil
}

func (s *CollaboratorStore) RemoveWithEvent(ctx context.Context, owner, graphID, username, actor string) (bool, error) {
	var affected int64
	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("graph_id = ? AND username = ?", graphID, username).Delete(&collaboratorModel{})
		if res.Error != nil {
			return fmt.Errorf("delete collaborator: %w", res.Error)
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return enqueueEvent(tx, domain.EventCollaboratorRemoved, owner, graphID, actor, map[string]any{
			"username": username,
		}, time.Now().UTC())
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *CollaboratorStore) List(ctx context.Context, graphID string) ([]domain.Collaborator, error) {
	var models []collaboratorModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("graph_id = ?", graphID).Order("username ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}

	out := make([]domain.Collaborator, 0, len(models))
	for _, m := range models {
		out = append(out, toCollaboratorDomain(m))
	}
	return out, nil
}

func toCollaboratorDomain(m collaboratorModel) domain.Collaborator {
	return domain.Collaborator{
		GraphID:   m.GraphID,
		Username:  m.Username,
		AddedBy:   m.AddedBy,
		CreatedAt: m.CreatedAt,
	}
}
