package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealth/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "wealth.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(kind core.RecordKind, owner, category string, amount float64) core.Record {
	return core.Record{Kind: kind, OwnerID: owner, Description: "d", Category: category, Amount: amount}
}

func TestSQLiteRepository_FetchAllKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, r := range []core.Record{
		record(core.KindAsset, "u1", "Stocks", 100),
		record(core.KindIncome, "u1", "Salary", 50),
		record(core.KindAsset, "u2", "", 25.5),
		record(core.KindAsset, "u1", "Cash", 10),
	} {
		_, err := repo.CreateRecord(ctx, r)
		require.NoError(t, err)
	}

	assets, err := repo.FetchAll(ctx, core.KindAsset)
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, []string{"Stocks", "", "Cash"}, []string{assets[0].Category, assets[1].Category, assets[2].Category})
	assert.Equal(t, 25.5, assets[1].Amount)
	assert.NotEmpty(t, assets[0].ID)
	assert.False(t, assets[0].DateAdded.IsZero())

	liabilities, err := repo.FetchAll(ctx, core.KindLiability)
	require.NoError(t, err)
	assert.Empty(t, liabilities)
}

func TestSQLiteRepository_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	mine, err := repo.CreateRecord(ctx, record(core.KindLiability, "u1", "Loan", 500))
	require.NoError(t, err)
	_, err = repo.CreateRecord(ctx, record(core.KindLiability, "u2", "Loan", 700))
	require.NoError(t, err)

	list, err := repo.ListByOwner(ctx, core.KindLiability, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = repo.GetByOwner(ctx, core.KindLiability, mine.ID, "u2")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.GetByOwner(ctx, core.KindAsset, mine.ID, "u1")
	assert.ErrorIs(t, err, core.ErrNotFound, "kind is part of the key")
	assert.ErrorIs(t, repo.DeleteRecord(ctx, core.KindLiability, mine.ID, "u2"), core.ErrNotFound)
}

func TestSQLiteRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	created, err := repo.CreateRecord(ctx, record(core.KindLiability, "u1", "Loan", 500))
	require.NoError(t, err)

	created.Amount = 450
	created.InterestRate = 3.25
	updated, err := repo.UpdateRecord(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 450.0, updated.Amount)
	assert.Equal(t, 3.25, updated.InterestRate)
	assert.Equal(t, created.DateAdded.Unix(), updated.DateAdded.Unix())

	require.NoError(t, repo.DeleteRecord(ctx, core.KindLiability, created.ID, "u1"))
	assert.ErrorIs(t, repo.DeleteRecord(ctx, core.KindLiability, created.ID, "u1"), core.ErrNotFound)

	created.ID = "missing"
	_, err = repo.UpdateRecord(ctx, created)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u, err := repo.CreateUser(ctx, core.User{Name: "Ada", Email: " Ada@Example.com ", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = repo.CreateUser(ctx, core.User{Name: "Other", Email: "ada@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	byEmail, err := repo.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	u.Name = "Ada L."
	updated, err := repo.UpdateUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.Name)

	_, err = repo.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteRepository_DeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u, err := repo.CreateUser(ctx, core.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.CreateRecord(ctx, record(core.KindAsset, u.ID, "Cash", 1))
	require.NoError(t, err)
	_, err = repo.CreateRecord(ctx, record(core.KindAsset, "someone-else", "Cash", 2))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser(ctx, u.ID))

	assets, err := repo.FetchAll(ctx, core.KindAsset)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "someone-else", assets[0].OwnerID)
	assert.ErrorIs(t, repo.DeleteUser(ctx, u.ID), core.ErrNotFound)
}

func TestSQLiteRepository_RecordEvents(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	ev := core.RecordEvent{
		ID:        "ev-1",
		Action:    core.ActionCreated,
		Kind:      core.KindAsset,
		RecordID:  "r-1",
		OwnerID:   "u1",
		Category:  "Cash",
		Amount:    10,
		Timestamp: time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC),
	}
	inserted, err := repo.SaveRecordEvent(ctx, ev)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.SaveRecordEvent(ctx, ev)
	require.NoError(t, err)
	assert.False(t, inserted, "redelivery is ignored")

	events, err := repo.RecordEvents(ctx, "r-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ev, events[0])
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wealth.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path), "second run is a no-op")

	version, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
