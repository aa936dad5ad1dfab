package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wealth/internal/core"
	"wealth/internal/log"
	"wealth/internal/ports"
)

// ErrFetchRecords wraps any failure to read records from the store. It is
// the only error Run returns.
var ErrFetchRecords = errors.New("fetch financial records")

const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

const serviceName = "Financial Recommendation System"

// Result is one generated set of recommendations together with the figures
// they were derived from.
type Result struct {
	Recommendations []string      `json:"recommendations"`
	Summary         FinancialView `json:"financialSummary"`
	Breakdown       Breakdown     `json:"breakdown"`
	GeneratedAt     time.Time     `json:"timestamp"`
	// Source is SourceModel or SourceFallback.
	Source string `json:"-"`
	// Aggregate keeps the full summary, including the record count.
	Aggregate Aggregate `json:"-"`
}

// FinancialView is the subset of Summary exposed to API clients.
type FinancialView struct {
	TotalAssets      float64 `json:"totalAssets"`
	TotalIncome      float64 `json:"totalIncome"`
	TotalLiabilities float64 `json:"totalLiabilities"`
	NetWorth         float64 `json:"netWorth"`
	DebtToAssetRatio float64 `json:"debtToAssetRatio"`
	SavingsRate      float64 `json:"savingsRate"`
}

// HealthStatus is the static service descriptor.
type HealthStatus struct {
	Service   string            `json:"service"`
	Status    string            `json:"status"`
	Model     string            `json:"model"`
	Provider  string            `json:"provider"`
	Region    string            `json:"region"`
	Endpoints map[string]string `json:"endpoints"`
	Timestamp time.Time         `json:"timestamp"`
}

// Pipeline runs fetch, aggregate, prompt, infer and parse in sequence.
type Pipeline struct {
	records ports.RecordReader
	client  *InferenceClient
	now     func() time.Time
}

type Option func(*Pipeline)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func NewPipeline(records ports.RecordReader, client *InferenceClient, opts ...Option) *Pipeline {
	p := &Pipeline{
		records: records,
		client:  client,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run produces a Result. Inference problems are absorbed by substituting
// the fallback list, so the only possible error wraps ErrFetchRecords.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentAdvisor)

	assets, err := p.fetch(ctx, core.KindAsset)
	if err != nil {
		return nil, err
	}
	incomes, err := p.fetch(ctx, core.KindIncome)
	if err != nil {
		return nil, err
	}
	liabilities, err := p.fetch(ctx, core.KindLiability)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Financial records fetched",
		"assets", len(assets),
		"incomes", len(incomes),
		"liabilities", len(liabilities),
	)

	agg := BuildAggregate(assets, incomes, liabilities)
	logger.InfoContext(ctx, "Financial data aggregated",
		log.FieldOperation, log.OpAggregate,
		"total_assets", agg.Summary.TotalAssets,
		"total_income", agg.Summary.TotalIncome,
		"total_liabilities", agg.Summary.TotalLiabilities,
	)

	prompt := BuildPrompt(agg)
	outcome := p.client.Infer(ctx, prompt)

	source := SourceModel
	var recs []string
	if outcome.OK() {
		recs = ParseRecommendations(outcome.Text)
	}
	if len(recs) == 0 {
		reason := "parsed reply was empty"
		if outcome.Err != nil {
			reason = outcome.Err.Error()
		}
		logger.WarnContext(ctx, "Using fallback recommendations",
			log.FieldSource, SourceFallback,
			"reason", reason,
			"fallback_version", FallbackVersion,
		)
		recs = FallbackRecommendations()
		source = SourceFallback
	}

	return &Result{
		Recommendations: recs,
		Summary:         viewOf(agg.Summary),
		Breakdown:       agg.Breakdown,
		GeneratedAt:     p.now().UTC(),
		Source:          source,
		Aggregate:       agg,
	}, nil
}

// Probe checks inference connectivity.
func (p *Pipeline) Probe(ctx context.Context) ProbeResult {
	return p.client.Probe(ctx)
}

// Health returns the static descriptor. It performs no I/O.
func (p *Pipeline) Health() HealthStatus {
	cfg := p.client.Config()
	return HealthStatus{
		Service:  serviceName,
		Status:   "operational",
		Model:    cfg.Model,
		Provider: cfg.Provider,
		Region:   cfg.Region,
		Endpoints: map[string]string{
			"recommendations": "/api/recommendations",
			"test":            "/api/recommendations/test",
			"health":          "/api/recommendations/health",
		},
		Timestamp: p.now().UTC(),
	}
}

func (p *Pipeline) fetch(ctx context.Context, kind core.RecordKind) ([]core.Record, error) {
	records, err := p.records.FetchAll(ctx, kind)
	if err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentAdvisor).ErrorContext(ctx, "Failed to fetch records",
			log.FieldKind, string(kind),
			log.FieldError, err.Error(),
		)
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchRecords, kind.Plural(), err)
	}
	return records, nil
}

func viewOf(s Summary) FinancialView {
	return FinancialView{
		TotalAssets:      s.TotalAssets,
		TotalIncome:      s.TotalIncome,
		TotalLiabilities: s.TotalLiabilities,
		NetWorth:         s.NetWorth,
		DebtToAssetRatio: s.DebtToAssetRatio,
		SavingsRate:      s.SavingsRate,
	}
}
