package advisor

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	"wealth/internal/core"
)

// Summary holds the cross-owner totals and the two derived ratios.
// Ratios are percentages rounded to two decimal places.
type Summary struct {
	TotalAssets      float64 `json:"totalAssets"`
	TotalIncome      float64 `json:"totalIncome"`
	TotalLiabilities float64 `json:"totalLiabilities"`
	NetWorth         float64 `json:"netWorth"`
	DebtToAssetRatio float64 `json:"debtToAssetRatio"`
	SavingsRate      float64 `json:"savingsRate"`
	TotalRecords     int     `json:"totalRecords"`
}

// CategoryTotal is the accumulated amount and item count of one category.
type CategoryTotal struct {
	Category string  `json:"-"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// CategoryBreakdown groups records by category label. Entries keep the
// order in which each label was first seen.
type CategoryBreakdown struct {
	entries []CategoryTotal
	index   map[string]int
}

// KindBreakdown is the per-kind section of the breakdown payload.
// AverageInterestRate is only set for liabilities.
type KindBreakdown struct {
	Total               float64           `json:"total"`
	Count               int               `json:"count"`
	Categories          CategoryBreakdown `json:"categories"`
	AverageInterestRate *float64          `json:"averageInterestRate,omitempty"`
}

type Breakdown struct {
	Assets      KindBreakdown `json:"assets"`
	Income      KindBreakdown `json:"income"`
	Liabilities KindBreakdown `json:"liabilities"`
}

// Aggregate is everything derived from one snapshot of the record store.
type Aggregate struct {
	Summary   Summary
	Breakdown Breakdown
}

// SumAmounts returns the arithmetic sum of the record amounts.
func SumAmounts(records []core.Record) float64 {
	var total float64
	for _, r := range records {
		total += r.Amount
	}
	return total
}

// Categorize groups records by category label. Records with a blank
// category are grouped under core.UncategorizedLabel.
func Categorize(records []core.Record) CategoryBreakdown {
	b := CategoryBreakdown{index: make(map[string]int)}
	for _, r := range records {
		b.add(r.CategoryLabel(), r.Amount)
	}
	return b
}

// AverageInterestRate returns the mean interest rate, or 0 when there are
// no liabilities.
func AverageInterestRate(liabilities []core.Record) float64 {
	if len(liabilities) == 0 {
		return 0
	}
	var sum float64
	for _, l := range liabilities {
		sum += l.InterestRate
	}
	return sum / float64(len(liabilities))
}

// Summarize computes totals and ratios across the three record kinds.
//
// savingsRate subtracts total liabilities (not expenses) from income; this
// matches the figures clients already consume.
func Summarize(assets, incomes, liabilities []core.Record) Summary {
	totalAssets := SumAmounts(assets)
	totalIncome := SumAmounts(incomes)
	totalLiabilities := SumAmounts(liabilities)

	s := Summary{
		TotalAssets:      totalAssets,
		TotalIncome:      totalIncome,
		TotalLiabilities: totalLiabilities,
		NetWorth:         totalAssets - totalLiabilities,
		TotalRecords:     len(assets) + len(incomes) + len(liabilities),
	}
	if totalAssets > 0 {
		s.DebtToAssetRatio = round2(totalLiabilities / totalAssets * 100)
	}
	if totalIncome > 0 {
		s.SavingsRate = round2((totalIncome - totalLiabilities) / totalIncome * 100)
	}
	return s
}

// BuildAggregate produces the summary and the per-kind breakdowns.
func BuildAggregate(assets, incomes, liabilities []core.Record) Aggregate {
	avg := round2(AverageInterestRate(liabilities))
	return Aggregate{
		Summary: Summarize(assets, incomes, liabilities),
		Breakdown: Breakdown{
			Assets:      kindBreakdown(assets),
			Income:      kindBreakdown(incomes),
			Liabilities: withAverageRate(kindBreakdown(liabilities), avg),
		},
	}
}

func kindBreakdown(records []core.Record) KindBreakdown {
	return KindBreakdown{
		Total:      SumAmounts(records),
		Count:      len(records),
		Categories: Categorize(records),
	}
}

func withAverageRate(kb KindBreakdown, rate float64) KindBreakdown {
	kb.AverageInterestRate = &rate
	return kb
}

// round2 passes non-finite values through; decimal cannot represent them.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func (b *CategoryBreakdown) add(label string, amount float64) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	i, ok := b.index[label]
	if !ok {
		b.entries = append(b.entries, CategoryTotal{Category: label})
		i = len(b.entries) - 1
		b.index[label] = i
	}
	b.entries[i].Total += amount
	b.entries[i].Count++
}

// Len returns the number of distinct categories.
func (b CategoryBreakdown) Len() int {
	return len(b.entries)
}

// Entries returns a copy of the category totals in first-seen order.
func (b CategoryBreakdown) Entries() []CategoryTotal {
	out := make([]CategoryTotal, len(b.entries))
	copy(out, b.entries)
	return out
}

// Get looks up one category by label.
func (b CategoryBreakdown) Get(label string) (CategoryTotal, bool) {
	i, ok := b.index[label]
	if !ok {
		return CategoryTotal{}, false
	}
	return b.entries[i], true
}

// MarshalJSON renders the breakdown as an object keyed by category label,
// preserving first-seen order.
func (b CategoryBreakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range b.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Category)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
