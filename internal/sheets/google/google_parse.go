package google

import (
	"fmt"
	"strings"
	"time"

	"wealth/internal/core"
)

type skippedRow struct {
	row int
	err error
}

// parseRecords converts a values matrix into records. The first row must
// carry the headers Description and Amount; Owner, Category, Interest Rate
// and Date Added are optional. Row numbers are 1-based as shown in Sheets.
func parseRecords(values [][]interface{}, kind core.RecordKind, tab string) ([]core.Record, []skippedRow, error) {
	records := make([]core.Record, 0)
	if len(values) == 0 {
		return records, nil, nil
	}

	headers := toStrings(values[0])
	col := func(name string) int { return indexOf(headers, name) }
	colOwner, colDesc, colCat := col("Owner"), col("Description"), col("Category")
	colAmount, colRate, colDate := col("Amount"), col("Interest Rate"), col("Date Added")

	if colDesc == -1 || colAmount == -1 {
		missing := make([]string, 0, 2)
		if colDesc == -1 {
			missing = append(missing, "Description")
		}
		if colAmount == -1 {
			missing = append(missing, "Amount")
		}
		return nil, nil, fmt.Errorf("unexpected %s header: missing %s; got headers=%v", tab, strings.Join(missing, ","), headers)
	}

	var skipped []skippedRow
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		desc := strings.TrimSpace(safeGet(row, colDesc))
		amountStr := strings.TrimSpace(safeGet(row, colAmount))
		if desc == "" && amountStr == "" {
			continue
		}

		amount, err := core.ParseAmount(amountStr)
		if err != nil {
			skipped = append(skipped, skippedRow{row: i + 1, err: err})
			continue
		}

		rec := core.Record{
			ID:          fmt.Sprintf("sheet:%s!%d", tab, i+1),
			OwnerID:     strings.TrimSpace(safeGet(row, colOwner)),
			Kind:        kind,
			Description: desc,
			Category:    strings.TrimSpace(safeGet(row, colCat)),
			Amount:      amount,
		}
		if kind == core.KindLiability {
			if rateStr := strings.TrimSpace(strings.TrimSuffix(safeGet(row, colRate), "%")); rateStr != "" {
				rate, err := core.ParseAmount(rateStr)
				if err == nil && !core.ValidInterestRate(rate) {
					err = core.ErrInvalidInterestRate
				}
				if err != nil {
					skipped = append(skipped, skippedRow{row: i + 1, err: fmt.Errorf("interest rate: %w", err)})
					continue
				}
				rec.InterestRate = rate
			}
		}
		if d := strings.TrimSpace(safeGet(row, colDate)); d != "" {
			if t, err := time.Parse(time.DateOnly, d); err == nil {
				rec.DateAdded = t
			}
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(v, target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
