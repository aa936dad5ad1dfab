package advisor

import (
	"context"
	"errors"
	"sync"

	"wealth/internal/core"
)

type fakeRecords struct {
	byKind map[core.RecordKind][]core.Record
	errFor core.RecordKind
}

func (f *fakeRecords) FetchAll(_ context.Context, kind core.RecordKind) ([]core.Record, error) {
	if f.errFor == kind {
		return nil, errors.New("connection refused")
	}
	return f.byKind[kind], nil
}

type fakeModel struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []GenerateRequest
}

func (m *fakeModel) Generate(_ context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	return m.text, m.err
}

func asset(category string, amount float64) core.Record {
	return core.Record{Kind: core.KindAsset, OwnerID: "u1", Description: "a", Category: category, Amount: amount}
}

func income(category string, amount float64) core.Record {
	return core.Record{Kind: core.KindIncome, OwnerID: "u1", Description: "i", Category: category, Amount: amount}
}

func liability(category string, amount, rate float64) core.Record {
	return core.Record{Kind: core.KindLiability, OwnerID: "u1", Description: "l", Category: category, Amount: amount, InterestRate: rate}
}

// sampleAggregate is the fixture rendered into the golden prompt files.
func sampleAggregate() Aggregate {
	return BuildAggregate(
		[]core.Record{asset("Savings", 10000), asset("", 2500.5), asset("Savings", 234.5)},
		[]core.Record{income("Salary", 5000), income("Freelance", 1234.5)},
		[]core.Record{liability("Credit Card", 1200, 18), liability("Car Loan", 800, 4.5)},
	)
}
