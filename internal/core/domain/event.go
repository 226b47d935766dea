package domain

import (
	"encoding/json"
	"time"
)

const (
	EventGraphCreated        = "graph.created"
	EventGraphDeleted        = "graph.deleted"
	EventCollaboratorAdded   = "collaborator.added"
	EventCollaboratorRemoved = "collaborator.removed"

	OutboxTopicGraphs = "gaas.graphs"
)

const (
	OutboxStatusPending    = "pending"
	OutboxStatusDispatched = "dispatched"
	OutboxStatusDead       = "dead"
)

type EventEnvelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	TenantID   string          `json:"tenant_id"`
	GraphID    string          `json:"graph_id"`
	Actor      string          `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type OutboxEvent struct {
	ID            int64
	EventID       string
	TenantID      string
	Topic         string
	PayloadJSON   json.RawMessage
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	DispatchedAt  *time.Time
}
