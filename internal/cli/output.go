package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"wealth/internal/advisor"
)

// WriteResult renders a pipeline result in the given format. The json and
// yaml forms carry the same fields as the HTTP payload.
func WriteResult(w io.Writer, format string, r *advisor.Result) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	}

	s := r.Summary
	fmt.Fprintf(w, "Recommendations (%s, %s)\n", r.Source, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	for i, rec := range r.Recommendations {
		fmt.Fprintf(w, "%d. %s\n", i+1, rec)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total assets:        %s\n", money(s.TotalAssets))
	fmt.Fprintf(w, "Total income:        %s\n", money(s.TotalIncome))
	fmt.Fprintf(w, "Total liabilities:   %s\n", money(s.TotalLiabilities))
	fmt.Fprintf(w, "Net worth:           %s\n", money(s.NetWorth))
	fmt.Fprintf(w, "Debt-to-asset ratio: %s%%\n", strconv.FormatFloat(s.DebtToAssetRatio, 'f', -1, 64))
	fmt.Fprintf(w, "Savings rate:        %s%%\n", strconv.FormatFloat(s.SavingsRate, 'f', -1, 64))
	_, err := fmt.Fprintf(w, "Records:             %d\n", r.Aggregate.Summary.TotalRecords)
	return err
}

// WriteProbe renders a probe result.
func WriteProbe(w io.Writer, format string, p advisor.ProbeResult) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, p)
	case FormatYAML:
		return writeYAML(w, p)
	}
	if !p.Success {
		_, err := fmt.Fprintf(w, "%s: %s\n", p.Message, p.Error)
		return err
	}
	_, err := fmt.Fprintf(w, "%s (%s): %s\n", p.Message, p.Model, p.Response)
	return err
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML goes through JSON so that json tags and custom marshalers,
// including category ordering, apply unchanged.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
