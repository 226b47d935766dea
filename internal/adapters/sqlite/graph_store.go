package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atvirokodosprendimai/gaasapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
)

type graphModel struct {
	GraphID      string    `gorm:"column:graph_id;primaryKey"`
	Owner        string    `gorm:"column:owner;not null"`
	Description  string    `gorm:"column:description;not null"`
	Status       string    `gorm:"column:status;not null"`
	ElementsJSON string    `gorm:"column:elements_json;not null"`
	TypesJSON    string    `gorm:"column:types_json;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (graphModel) TableName() string {
	return "graphs"
}

type outboxEventModel struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	EventID       string     `gorm:"column:event_id;not null"`
	TenantID      string     `gorm:"column:tenant_id;not null"`
	Topic         string     `gorm:"column:topic;not null"`
	PayloadJSON   string     `gorm:"column:payload_json;not null"`
	Status        string     `gorm:"column:status;not null"`
	Attempts      int        `gorm:"column:attempts;not null"`
	NextAttemptAt time.Time  `gorm:"column:next_attempt_at;not null"`
	LastError     string     `gorm:"column:last_error;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null"`
	DispatchedAt  *time.Time `gorm:"column:dispatched_at"`
}

func (outboxEventModel) TableName() string {
	return "outbox_events"
}

// GraphStore keeps graphs in SQLite. Every mutation enqueues its lifecycle
// event in the outbox inside the same write transaction.
type GraphStore struct {
	db *gormsqlite.DB
}

func NewGraphStore(db *gormsqlite.DB) *GraphStore {
	return &GraphStore{db: db}
}

func (s *GraphStore) CreateWithEvent(ctx context.Context, graph domain.Graph, actor string) (domain.Graph, error) {
	now := time.Now().UTC()
	model := graphModel{
		GraphID:      graph.GraphID,
		Owner:        graph.Owner,
		Description:  graph.Description,
		Status:       string(graph.Status),
		ElementsJSON: string(graph.Schema.Elements),
		TypesJSON:    string(graph.Schema.Types),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var count int64
		if err := tx.Model(&graphModel{}).Where("graph_id = ?", graph.GraphID).Count(&count).Error; err != nil {
			return fmt.Errorf("check graph id: %w", err)
		}
		if count > 0 {
			return domain.ErrAlreadyExists
		}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert graph: %w", err)
		}
		return enqueueEvent(tx, domain.EventGraphCreated, graph.Owner, graph.GraphID, actor, map[string]any{
			"graphId":     graph.GraphID,
			"description": graph.Description,
			"status":      graph.Status,
		}, now)
	})
	if err != nil {
		return domain.Graph{}, err
	}
	return toGraphDomain(model), nil
}

func (s *GraphStore) DeleteWithEvent(ctx context.Context, owner, graphID, actor string) (bool, error) {
	var affected int64
	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("owner = ? AND graph_id = ?", owner, graphID).Delete(&graphModel{})
		if res.Error != nil {
			return fmt.Errorf("delete graph: %w", res.Error)
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		if err := tx.Where("graph_id = ?", graphID).Delete(&collaboratorModel{}).Error; err != nil {
			return fmt.Errorf("delete collaborators: %w", err)
		}
		return enqueueEvent(tx, domain.EventGraphDeleted, owner, graphID, actor, map[string]any{
			"graphId": graphID,
			"status":  domain.GraphStatusDeletionQueued,
		}, time.Now().UTC())
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *GraphStore) Get(ctx context.Context, owner, graphID string) (domain.Graph, error) {
	var model graphModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("owner = ? AND graph_id = ?", owner, graphID).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Graph{}, domain.ErrNotFound
		}
		return domain.Graph{}, fmt.Errorf("get graph: %w", err)
	}
	return toGraphDomain(model), nil
}

func (s *GraphStore) List(ctx context.Context, owner string) ([]domain.Graph, error) {
	var models []graphModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("owner = ?", owner).Order("graph_id ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}

	graphs := make([]domain.Graph, 0, len(models))
	for _, m := range models {
		graphs = append(graphs, toGraphDomain(m))
	}
	return graphs, nil
}

func enqueueEvent(tx *gormsqlite.Tx, eventType, tenantID, graphID, actor string, payload any, at time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	envelope := domain.EventEnvelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		TenantID:   tenantID,
		GraphID:    graphID,
		Actor:      actor,
		OccurredAt: at,
		Payload:    body,
	}
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}

	row := outboxEventModel{
		EventID:       envelope.EventID,
		TenantID:      tenantID,
		Topic:         domain.OutboxTopicGraphs,
		PayloadJSON:   string(encoded),
		Status:        domain.OutboxStatusPending,
		NextAttemptAt: at,
		CreatedAt:     at,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("enqueue %s: %w", eventType, err)
	}
	return nil
}

func toGraphDomain(m graphModel) domain.Graph {
	return domain.Graph{
		GraphID:     m.GraphID,
		Description: m.Description,
		Owner:       m.Owner,
		Status:      domain.GraphStatus(m.Status),
		Schema: domain.GraphSchema{
			Elements: json.RawMessage(m.ElementsJSON),
			Types:    json.RawMessage(m.TypesJSON),
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
