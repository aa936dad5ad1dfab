package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealth/internal/core"
)

func TestStore_RecordsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.CreateRecord(ctx, core.Record{Kind: core.KindAsset, OwnerID: "u1", Description: "x", Category: "Cash", Amount: 5})
	require.NoError(t, err)
	_, err = s.CreateRecord(ctx, core.Record{Kind: core.KindAsset, OwnerID: "u2", Description: "y", Category: "Cash", Amount: 7})
	require.NoError(t, err)

	all, err := s.FetchAll(ctx, core.KindAsset)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := s.ListByOwner(ctx, core.KindAsset, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = s.GetByOwner(ctx, core.KindAsset, a.ID, "u2")
	assert.ErrorIs(t, err, core.ErrNotFound)

	a.Amount = 6
	updated, err := s.UpdateRecord(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 6.0, updated.Amount)

	require.NoError(t, s.DeleteRecord(ctx, core.KindAsset, a.ID, "u1"))
	assert.ErrorIs(t, s.DeleteRecord(ctx, core.KindAsset, a.ID, "u1"), core.ErrNotFound)

	incomes, err := s.FetchAll(ctx, core.KindIncome)
	require.NoError(t, err)
	assert.NotNil(t, incomes)
	assert.Empty(t, incomes)
}

func TestStore_UsersAndCascade(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.CreateUser(ctx, core.User{Name: "Ada", Email: "ADA@example.com"})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, core.User{Name: "Bob", Email: "ada@example.com"})
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	bob, err := s.CreateUser(ctx, core.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	bob.Email = "ada@example.com"
	_, err = s.UpdateUser(ctx, bob)
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	_, err = s.CreateRecord(ctx, core.Record{Kind: core.KindIncome, OwnerID: u.ID, Description: "s", Category: "Salary", Amount: 1})
	require.NoError(t, err)
	require.NoError(t, s.DeleteUser(ctx, u.ID))

	incomes, err := s.FetchAll(ctx, core.KindIncome)
	require.NoError(t, err)
	assert.Empty(t, incomes)
	_, err = s.GetUserByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`records:
  - {owner: demo, kind: asset, description: Index fund, category: Stocks, amount: 1000}
  - {owner: demo, kind: liabilities, description: Card, category: Credit Card, amount: 200, interest_rate: 19.9}
`), 0o644))

	s, err := NewFromFile(path)
	require.NoError(t, err)

	liabilities, err := s.FetchAll(context.Background(), core.KindLiability)
	require.NoError(t, err)
	require.Len(t, liabilities, 1)
	assert.Equal(t, 19.9, liabilities[0].InterestRate)

	missing, err := NewFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assets, _ := missing.FetchAll(context.Background(), core.KindAsset)
	assert.Empty(t, assets)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("records:\n  - {kind: stocks}\n"), 0o644))
	_, err = NewFromFile(bad)
	assert.ErrorIs(t, err, core.ErrInvalidKind)

	for body, want := range map[string]error{
		"records:\n  - {kind: asset, amount: .inf}\n":                       core.ErrInvalidAmount,
		"records:\n  - {kind: asset, amount: 1e308}\n":                      core.ErrInvalidAmount,
		"records:\n  - {kind: liability, amount: 1, interest_rate: .nan}\n": core.ErrInvalidInterestRate,
	} {
		require.NoError(t, os.WriteFile(bad, []byte(body), 0o644))
		_, err = NewFromFile(bad)
		assert.ErrorIs(t, err, want, body)
	}
}
