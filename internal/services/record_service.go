package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wealth/internal/core"
	"wealth/internal/log"
	"wealth/internal/ports"
)

// RecordInput is the payload of a create request.
type RecordInput struct {
	Description  string
	Category     string
	Amount       float64
	InterestRate *float64
}

// RecordPatch is a partial update; nil fields and blank strings keep the
// stored value.
type RecordPatch struct {
	Description  *string
	Category     *string
	Amount       *float64
	InterestRate *float64
}

// RecordService persists owner-scoped records and announces every change.
type RecordService struct {
	repo   ports.RecordRepository
	events ports.EventPublisher
	logger *log.Logger
	now    func() time.Time
}

func NewRecordService(repo ports.RecordRepository, events ports.EventPublisher, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecordService{
		repo:   repo,
		events: events,
		logger: logger.WithComponent(log.ComponentRecords),
		now:    time.Now,
	}
}

func (s *RecordService) List(ctx context.Context, kind core.RecordKind, ownerID string) ([]core.Record, error) {
	return s.repo.ListByOwner(ctx, kind, ownerID)
}

func (s *RecordService) Get(ctx context.Context, kind core.RecordKind, id, ownerID string) (core.Record, error) {
	return s.repo.GetByOwner(ctx, kind, id, ownerID)
}

// Create validates and stores a new record. Liabilities require an
// interest rate; other kinds must not carry one.
func (s *RecordService) Create(ctx context.Context, kind core.RecordKind, ownerID string, in RecordInput) (core.Record, error) {
	rec := core.Record{
		OwnerID:     ownerID,
		Kind:        kind,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Amount:      in.Amount,
	}
	if kind == core.KindLiability {
		if in.InterestRate == nil {
			return core.Record{}, invalid(fmt.Errorf("%w: required for liabilities", core.ErrInvalidInterestRate))
		}
		rec.InterestRate = *in.InterestRate
	} else if in.InterestRate != nil && *in.InterestRate != 0 {
		return core.Record{}, invalid(fmt.Errorf("%w: only liabilities carry an interest rate", core.ErrInvalidInterestRate))
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, invalid(err)
	}

	created, err := s.repo.CreateRecord(ctx, rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("save %s: %w", kind, err)
	}
	s.publish(ctx, core.ActionCreated, created)
	return created, nil
}

// Update applies patch to the owner's record.
func (s *RecordService) Update(ctx context.Context, kind core.RecordKind, id, ownerID string, patch RecordPatch) (core.Record, error) {
	rec, err := s.repo.GetByOwner(ctx, kind, id, ownerID)
	if err != nil {
		return core.Record{}, err
	}

	if patch.Description != nil && strings.TrimSpace(*patch.Description) != "" {
		rec.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) != "" {
		rec.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Amount != nil {
		rec.Amount = *patch.Amount
	}
	if patch.InterestRate != nil {
		if kind != core.KindLiability {
			return core.Record{}, invalid(fmt.Errorf("%w: only liabilities carry an interest rate", core.ErrInvalidInterestRate))
		}
		rec.InterestRate = *patch.InterestRate
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, invalid(err)
	}

	updated, err := s.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return core.Record{}, err
	}
	s.publish(ctx, core.ActionUpdated, updated)
	return updated, nil
}

func (s *RecordService) Delete(ctx context.Context, kind core.RecordKind, id, ownerID string) error {
	rec, err := s.repo.GetByOwner(ctx, kind, id, ownerID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRecord(ctx, kind, id, ownerID); err != nil {
		return err
	}
	s.publish(ctx, core.ActionDeleted, rec)
	return nil
}

// publish never fails the caller: the change is already stored.
func (s *RecordService) publish(ctx context.Context, action core.EventAction, rec core.Record) {
	log.NewStructuredLogger(s.logger).LogRecordChange(ctx, string(action), string(rec.Kind), rec.ID, rec.OwnerID, rec.Amount)

	if s.events == nil {
		return
	}
	ev := core.RecordEvent{
		ID:        uuid.NewString(),
		Action:    action,
		Kind:      rec.Kind,
		RecordID:  rec.ID,
		OwnerID:   rec.OwnerID,
		Category:  rec.Category,
		Amount:    rec.Amount,
		Timestamp: s.now().UTC(),
	}
	if err := s.events.PublishRecordEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record event",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpPublish,
			log.FieldEventID, ev.ID,
			log.FieldRecordID, rec.ID,
			log.FieldAction, string(action),
		)
	}
}
