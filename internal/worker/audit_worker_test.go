package worker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/magiclink-auth/internal/events"
	"github.com/spec-kit/magiclink-auth/internal/service"
)

func TestStartAuditWorkerLogsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	StartAuditWorker(service.NewAuditService(dispatcher, zap.New(core)))

	userID := "u-1"
	err := dispatcher.Publish(context.Background(), events.Event{
		ID:        "e-1",
		Type:      events.EventSessionRevoked,
		UserID:    &userID,
		Timestamp: time.Now(),
		Payload:   events.SessionRevokedPayload{SessionID: "s-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	entries := logs.FilterMessage("auth event").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d audit entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != "session_revoked" || fields["user_id"] != "u-1" {
		t.Errorf("fields = %v", fields)
	}
}

func TestStartAuditWorkerNil(t *testing.T) {
	StartAuditWorker(nil)
}
