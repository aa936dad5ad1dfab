package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealth/internal/core"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func scenarioRecords() *fakeRecords {
	return &fakeRecords{byKind: map[core.RecordKind][]core.Record{
		core.KindAsset:     {asset("Cash", 1000)},
		core.KindIncome:    {income("Salary", 500)},
		core.KindLiability: {liability("Loan", 200, 5)},
	}}
}

func newTestPipeline(records *fakeRecords, model Model) *Pipeline {
	cfg := DefaultInferenceConfig()
	cfg.Timeout = time.Second
	return NewPipeline(records, NewInferenceClient(model, cfg), WithClock(func() time.Time { return fixedNow }))
}

func TestPipelineRun_ModelFailureUsesFallback(t *testing.T) {
	p := newTestPipeline(scenarioRecords(), &fakeModel{err: errors.New("throttled")})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, FallbackRecommendations(), res.Recommendations)
	assert.Len(t, res.Recommendations, 7)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 800.0, res.Summary.NetWorth)
	assert.Equal(t, 20.0, res.Summary.DebtToAssetRatio)
	assert.Equal(t, 60.0, res.Summary.SavingsRate)
	require.NotNil(t, res.Breakdown.Liabilities.AverageInterestRate)
	assert.Equal(t, 5.0, *res.Breakdown.Liabilities.AverageInterestRate)
	assert.Equal(t, fixedNow, res.GeneratedAt)
}

func TestPipelineRun_ParsesModelReply(t *testing.T) {
	model := &fakeModel{text: "Advice:\n1. Save\n2. Invest\n3. Insure"}
	p := newTestPipeline(scenarioRecords(), model)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Save", "Invest", "Insure"}, res.Recommendations)
	assert.Equal(t, SourceModel, res.Source)

	require.Len(t, model.calls, 1)
	req := model.calls[0]
	assert.Equal(t, BuildPrompt(res.Aggregate), req.Prompt)
	assert.Equal(t, int32(1000), req.MaxOutputTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	assert.Equal(t, "gemini-2.5-flash", req.Model)
}

func TestPipelineRun_EmptyReplyUsesFallback(t *testing.T) {
	p := newTestPipeline(scenarioRecords(), &fakeModel{text: "   "})

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Len(t, res.Recommendations, 7)
}

func TestPipelineRun_FallbackIndependentOfData(t *testing.T) {
	failing := &fakeModel{err: errors.New("down")}
	empty := newTestPipeline(&fakeRecords{}, failing)
	full := newTestPipeline(scenarioRecords(), failing)

	a, err := empty.Run(context.Background())
	require.NoError(t, err)
	b, err := full.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a.Recommendations, b.Recommendations)
	assert.Equal(t, Summary{}, a.Aggregate.Summary)
}

func TestPipelineRun_Idempotent(t *testing.T) {
	p := newTestPipeline(scenarioRecords(), &fakeModel{text: "1. Same"})

	a, err := p.Run(context.Background())
	require.NoError(t, err)
	b, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestPipelineRun_FetchFailure(t *testing.T) {
	records := scenarioRecords()
	records.errFor = core.KindIncome
	model := &fakeModel{text: "1. never used"}
	p := newTestPipeline(records, model)

	res, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrFetchRecords)
	assert.Contains(t, err.Error(), "incomes")
	assert.Empty(t, model.calls)
}

func TestPipelineRun_ResultJSON(t *testing.T) {
	p := newTestPipeline(scenarioRecords(), &fakeModel{text: "1. Save"})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.ElementsMatch(t, []string{"recommendations", "financialSummary", "breakdown", "timestamp"}, keys(decoded))
	assert.NotContains(t, decoded["financialSummary"], "totalRecords")
	assert.Equal(t, "2025-03-01T12:00:00Z", decoded["timestamp"])
}

func TestPipelineProbe(t *testing.T) {
	ok := newTestPipeline(&fakeRecords{}, &fakeModel{text: "Connection successful"})
	res := ok.Probe(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, "Connection successful", res.Response)
	assert.Equal(t, "gemini-2.5-flash", res.Model)

	model := &fakeModel{err: errors.New("bad key")}
	failed := newTestPipeline(&fakeRecords{}, model).Probe(context.Background())
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "bad key")
	require.Len(t, model.calls, 1)
	assert.Equal(t, int32(probeMaxOutputTokens), model.calls[0].MaxOutputTokens)
	assert.Equal(t, probePrompt, model.calls[0].Prompt)
}

func TestPipelineHealth(t *testing.T) {
	p := newTestPipeline(&fakeRecords{}, nil)
	h := p.Health()

	assert.Equal(t, "Financial Recommendation System", h.Service)
	assert.Equal(t, "operational", h.Status)
	assert.Equal(t, "gemini-2.5-flash", h.Model)
	assert.Equal(t, "us-central1", h.Region)
	assert.Equal(t, "/api/recommendations", h.Endpoints["recommendations"])
	assert.Equal(t, fixedNow, h.Timestamp)
}

func TestInfer_NilModelReturnsError(t *testing.T) {
	out := NewInferenceClient(nil, DefaultInferenceConfig()).Infer(context.Background(), "p")
	assert.False(t, out.OK())
	assert.Error(t, out.Err)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
