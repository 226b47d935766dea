package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
)

// LogPublisher writes events to the log. It is used when no webhook is set.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, event domain.EventEnvelope) error {
	p.logger.Info("graph event",
		zap.String("topic", topic),
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("tenant", event.TenantID),
		zap.String("graph_id", event.GraphID),
		zap.String("actor", event.Actor),
	)
	return nil
}
