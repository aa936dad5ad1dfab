package advisor

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// PromptVersion identifies promptTemplate. Bump it whenever the template
// wording changes, since that changes what the model returns.
const PromptVersion = "recommendations-v1"

const promptTemplate = `You are a professional financial advisor. Based on the following aggregated financial data from multiple users, provide 5-7 general financial recommendations that would benefit most people.

%s
Key Metrics:
- Net Worth: $%s
- Debt-to-Asset Ratio: %s%%
- Savings Rate: %s%%

Please provide practical, actionable financial advice covering:
1. Emergency fund and savings
2. Debt management
3. Investment strategies
4. Risk management
5. Long-term financial planning

Format your response as a simple numbered list of recommendations. Each recommendation should be 1-2 sentences, clear, and actionable.`

// FormatData renders the aggregate as a plain-text block. The output is
// deterministic for a given aggregate.
func FormatData(agg Aggregate) string {
	p := message.NewPrinter(language.English)
	s := agg.Summary
	b := agg.Breakdown

	var sb strings.Builder
	sb.WriteString("Financial Data Summary:\n\n")

	sb.WriteString("Total Assets: $" + formatAmount(p, s.TotalAssets) + "\n")
	sb.WriteString("Total Income: $" + formatAmount(p, s.TotalIncome) + "\n")
	sb.WriteString("Total Liabilities: $" + formatAmount(p, s.TotalLiabilities) + "\n")
	sb.WriteString("Net Worth: $" + formatAmount(p, s.NetWorth) + "\n")
	sb.WriteString("Debt-to-Asset Ratio: " + formatPercent(s.DebtToAssetRatio) + "%\n")
	sb.WriteString("Savings Rate: " + formatPercent(s.SavingsRate) + "%\n\n")

	sb.WriteString("Asset Categories:\n")
	writeCategories(&sb, p, b.Assets.Categories, "items")
	sb.WriteString("\n")

	sb.WriteString("Income Sources:\n")
	writeCategories(&sb, p, b.Income.Categories, "sources")
	sb.WriteString("\n")

	sb.WriteString("Liabilities:\n")
	writeCategories(&sb, p, b.Liabilities.Categories, "items")
	var avg float64
	if b.Liabilities.AverageInterestRate != nil {
		avg = *b.Liabilities.AverageInterestRate
	}
	sb.WriteString("Average Interest Rate: " + strconv.FormatFloat(avg, 'f', 2, 64) + "%\n")

	return sb.String()
}

// BuildPrompt combines the formatted data with the instruction template.
func BuildPrompt(agg Aggregate) string {
	p := message.NewPrinter(language.English)
	s := agg.Summary
	return fmt.Sprintf(promptTemplate,
		FormatData(agg),
		formatAmount(p, s.NetWorth),
		formatPercent(s.DebtToAssetRatio),
		formatPercent(s.SavingsRate),
	)
}

func writeCategories(sb *strings.Builder, p *message.Printer, cb CategoryBreakdown, noun string) {
	for _, e := range cb.Entries() {
		fmt.Fprintf(sb, "  - %s: $%s (%d %s)\n", e.Category, formatAmount(p, e.Total), e.Count, noun)
	}
}

// formatAmount prints an amount with thousands grouping and at most two
// fraction digits, e.g. 1234.5 -> "1,234.5".
func formatAmount(p *message.Printer, v float64) string {
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// formatPercent prints the shortest representation, e.g. 20 -> "20".
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
