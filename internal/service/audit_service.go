package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/events"
)

// AuditService writes auth events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventMagicLinkRequested, a.handle)
	a.dispatcher.Subscribe(events.EventMagicLinkVerified, a.handle)
	a.dispatcher.Subscribe(events.EventSessionRevoked, a.handle)
	a.dispatcher.Subscribe(events.EventRoleChanged, a.handle)
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", *event.UserID))
	}
	a.logger.Info("auth event", fields...)
	return nil
}

// publish stamps and sends an event. Delivery problems are logged only; audit
// never fails the operation that produced the event.
func publish(ctx context.Context, d events.Dispatcher, logger *zap.Logger, event events.Event, clock Clock) {
	if d == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = clock.Now()
	}
	if err := d.Publish(ctx, event); err != nil {
		logger.Warn("audit publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
