package ports

import (
	"context"

	"wealth/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordReader returns every stored record of one kind, across all owners.
	RecordReader interface {
		FetchAll(ctx context.Context, kind core.RecordKind) ([]core.Record, error)
	}

	// RecordRepository is the owner-scoped CRUD surface. Lookups for a record
	// that exists but belongs to a different owner return core.ErrNotFound.
	RecordRepository interface {
		RecordReader
		ListByOwner(ctx context.Context, kind core.RecordKind, ownerID string) ([]core.Record, error)
		GetByOwner(ctx context.Context, kind core.RecordKind, id, ownerID string) (core.Record, error)
		CreateRecord(ctx context.Context, r core.Record) (core.Record, error)
		UpdateRecord(ctx context.Context, r core.Record) (core.Record, error)
		DeleteRecord(ctx context.Context, kind core.RecordKind, id, ownerID string) error
	}

	UserRepository interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUserByID(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
		// DeleteUser removes the user together with all records they own.
		DeleteUser(ctx context.Context, id string) error
	}

	// EventPublisher announces record mutations to downstream consumers.
	EventPublisher interface {
		PublishRecordEvent(ctx context.Context, ev core.RecordEvent) error
	}
)
