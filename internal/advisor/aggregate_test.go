package advisor

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealth/internal/core"
)

func TestSumAmounts(t *testing.T) {
	assert.Equal(t, 0.0, SumAmounts(nil))
	assert.Equal(t, 350.0, SumAmounts([]core.Record{asset("x", 100), asset("y", 250)}))
}

func TestCategorize(t *testing.T) {
	b := Categorize([]core.Record{
		asset("Stocks", 100),
		asset("", 50),
		asset("Stocks", 25),
		asset("   ", 5),
	})

	require.Equal(t, 2, b.Len())
	entries := b.Entries()
	assert.Equal(t, "Stocks", entries[0].Category)
	assert.Equal(t, core.UncategorizedLabel, entries[1].Category)

	stocks, ok := b.Get("Stocks")
	require.True(t, ok)
	assert.Equal(t, 125.0, stocks.Total)
	assert.Equal(t, 2, stocks.Count)

	unc, ok := b.Get(core.UncategorizedLabel)
	require.True(t, ok)
	assert.Equal(t, 55.0, unc.Total)
	assert.Equal(t, 2, unc.Count)
}

func TestSummarize_UnvalidatedHugeAmountsDoNotPanic(t *testing.T) {
	huge := []core.Record{asset("x", 1e308), asset("y", 1e308)}
	debt := []core.Record{{Kind: core.KindLiability, Amount: 1e308}, {Kind: core.KindLiability, Amount: 1e308}}

	var s Summary
	require.NotPanics(t, func() { s = Summarize(huge, nil, debt) })
	assert.True(t, math.IsInf(s.TotalAssets, 1))
	assert.True(t, math.IsNaN(s.DebtToAssetRatio))
}

func TestCategorize_LabelsMatchExactly(t *testing.T) {
	b := Categorize([]core.Record{asset("Stocks", 10), asset("Stocks ", 20), asset("stocks", 30)})

	require.Equal(t, 3, b.Len())
	stocks, ok := b.Get("Stocks")
	require.True(t, ok)
	assert.Equal(t, 10.0, stocks.Total)
	padded, ok := b.Get("Stocks ")
	require.True(t, ok)
	assert.Equal(t, 20.0, padded.Total)
}

func TestCategorize_CountsSumToRecords(t *testing.T) {
	records := []core.Record{asset("a", 1), asset("b", 2), asset("a", 3), asset("", 4), asset("c", 5)}
	b := Categorize(records)

	var count int
	var total float64
	for _, e := range b.Entries() {
		count += e.Count
		total += e.Total
	}
	assert.Equal(t, len(records), count)
	assert.Equal(t, SumAmounts(records), total)
}

func TestAverageInterestRate(t *testing.T) {
	assert.Equal(t, 0.0, AverageInterestRate(nil))
	assert.Equal(t, 11.25, AverageInterestRate([]core.Record{liability("a", 1, 18), liability("b", 1, 4.5)}))
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name        string
		assets      []core.Record
		incomes     []core.Record
		liabilities []core.Record
		want        Summary
	}{
		{
			name: "empty store",
			want: Summary{},
		},
		{
			name:        "no assets gives zero debt ratio",
			incomes:     []core.Record{income("Salary", 1000)},
			liabilities: []core.Record{liability("Loan", 400, 5)},
			want: Summary{
				TotalIncome:      1000,
				TotalLiabilities: 400,
				NetWorth:         -400,
				SavingsRate:      60,
				TotalRecords:     2,
			},
		},
		{
			name:        "no income gives zero savings rate",
			assets:      []core.Record{asset("Cash", 1000)},
			liabilities: []core.Record{liability("Loan", 250, 5)},
			want: Summary{
				TotalAssets:      1000,
				TotalLiabilities: 250,
				NetWorth:         750,
				DebtToAssetRatio: 25,
				TotalRecords:     2,
			},
		},
		{
			name:        "ratios rounded to two places",
			assets:      []core.Record{asset("Cash", 3)},
			incomes:     []core.Record{income("Salary", 3)},
			liabilities: []core.Record{liability("Loan", 1, 0)},
			want: Summary{
				TotalAssets:      3,
				TotalIncome:      3,
				TotalLiabilities: 1,
				NetWorth:         2,
				DebtToAssetRatio: 33.33,
				SavingsRate:      66.67,
				TotalRecords:     3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.assets, tt.incomes, tt.liabilities))
		})
	}
}

func TestBuildAggregate_BreakdownJSON(t *testing.T) {
	agg := BuildAggregate(
		[]core.Record{asset("Stocks", 100), asset("", 50)},
		nil,
		[]core.Record{liability("Loan", 200, 5)},
	)

	raw, err := json.Marshal(agg.Breakdown)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"assets": {"total": 150, "count": 2, "categories": {"Stocks": {"total": 100, "count": 1}, "Uncategorized": {"total": 50, "count": 1}}},
		"income": {"total": 0, "count": 0, "categories": {}},
		"liabilities": {"total": 200, "count": 1, "categories": {"Loan": {"total": 200, "count": 1}}, "averageInterestRate": 5}
	}`, string(raw))
}

func TestCategoryBreakdown_MarshalKeepsOrder(t *testing.T) {
	b := Categorize([]core.Record{asset("zeta", 1), asset("alpha", 2)})

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":{"total":1,"count":1},"alpha":{"total":2,"count":1}}`, string(raw))
}
