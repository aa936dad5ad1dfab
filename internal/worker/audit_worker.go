package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"wealth/internal/core"
	"wealth/internal/log"
)

// EventStore persists record events. SaveRecordEvent reports false when
// the event was already stored.
type EventStore interface {
	SaveRecordEvent(ctx context.Context, ev core.RecordEvent) (bool, error)
}

// AuditWorker writes every consumed record event to the audit trail.
// Redelivered events are stored once.
type AuditWorker struct {
	store  EventStore
	logger *log.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
}

type Stats struct {
	Processed  int64
	Duplicates int64
}

func NewAuditWorker(store EventStore, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AuditWorker{
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecordEvent stores ev. Returning an error makes the broker
// redeliver the message.
func (w *AuditWorker) HandleRecordEvent(ctx context.Context, ev core.RecordEvent) error {
	inserted, err := w.store.SaveRecordEvent(ctx, ev)
	if err != nil {
		return fmt.Errorf("save record event %s: %w", ev.ID, err)
	}
	if !inserted {
		w.duplicates.Add(1)
		w.logger.DebugContext(ctx, "Skipping duplicate record event", log.FieldEventID, ev.ID)
		return nil
	}
	w.processed.Add(1)

	w.logger.InfoContext(ctx, "Recorded audit event",
		log.FieldEventID, ev.ID,
		log.FieldAction, string(ev.Action),
		log.FieldKind, string(ev.Kind),
		log.FieldRecordID, ev.RecordID,
		log.FieldUserID, ev.OwnerID,
	)
	return nil
}

func (w *AuditWorker) Stats() Stats {
	return Stats{Processed: w.processed.Load(), Duplicates: w.duplicates.Load()}
}
