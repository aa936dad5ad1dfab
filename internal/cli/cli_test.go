package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"wealth/internal/advisor"
	"wealth/internal/config"
	"wealth/internal/core"
	"wealth/internal/log"
	"wealth/internal/store/memory"
)

type stubModel struct {
	text string
	err  error
}

func (m stubModel) Generate(context.Context, advisor.GenerateRequest) (string, error) {
	return m.text, m.err
}

func stubFactory(t *testing.T, model advisor.Model) PipelineFactory {
	t.Helper()
	store := memory.New()
	for _, r := range []core.Record{
		{OwnerID: "u1", Kind: core.KindAsset, Description: "Fund", Category: "Stocks", Amount: 1000},
		{OwnerID: "u1", Kind: core.KindAsset, Description: "Cash", Category: "Cash", Amount: 500},
		{OwnerID: "u1", Kind: core.KindIncome, Description: "Job", Category: "Salary", Amount: 400},
		{OwnerID: "u1", Kind: core.KindLiability, Description: "Card", Category: "Credit", Amount: 300, InterestRate: 18},
	} {
		_, err := store.CreateRecord(context.Background(), r)
		require.NoError(t, err)
	}
	clock := func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return func(context.Context, *config.Config, *log.Logger) (*advisor.Pipeline, func(), error) {
		client := advisor.NewInferenceClient(model, advisor.DefaultInferenceConfig())
		return advisor.NewPipeline(store, client, advisor.WithClock(clock)), func() {}, nil
	}
}

func run(t *testing.T, env *Env, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(env)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(&Env{Config: config.Load()})
	for _, name := range []string{"migrate", "recommend", "probe"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, FormatText, format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	env := &Env{Config: config.Load(), Pipeline: stubFactory(t, stubModel{text: "1. a"})}
	_, err := run(t, env, "recommend", "--format", "xml")
	assert.ErrorContains(t, err, `invalid format "xml"`)
}

func TestRecommend_Text(t *testing.T) {
	env := &Env{Config: config.Load(), Pipeline: stubFactory(t, stubModel{text: "1. Build a buffer.\n2. Pay the card."})}

	out, err := run(t, env, "recommend")
	require.NoError(t, err)
	assert.Contains(t, out, "Recommendations (model, 2024-03-01 12:00:00 UTC)")
	assert.Contains(t, out, "1. Build a buffer.\n2. Pay the card.\n")
	assert.Contains(t, out, "Net worth:           $1200.00")
	assert.Contains(t, out, "Debt-to-asset ratio: 20%")
	assert.Contains(t, out, "Savings rate:        25%")
	assert.Contains(t, out, "Records:             4")
}

func TestRecommend_FallbackSource(t *testing.T) {
	env := &Env{Config: config.Load(), Pipeline: stubFactory(t, stubModel{err: errors.New("down")})}

	out, err := run(t, env, "recommend")
	require.NoError(t, err)
	assert.Contains(t, out, "Recommendations (fallback,")
	assert.Contains(t, out, "7. ")
}

func TestRecommend_JSON(t *testing.T) {
	env := &Env{Config: config.Load(), Pipeline: stubFactory(t, stubModel{text: "1. Save."})}

	out, err := run(t, env, "recommend", "--format", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []any{"Save."}, got["recommendations"])
	assert.Equal(t, 1200.0, got["financialSummary"].(map[string]any)["netWorth"])
	assert.Equal(t, "2024-03-01T12:00:00Z", got["timestamp"])
}

func TestRecommend_YAMLKeepsCategoryOrder(t *testing.T) {
	env := &Env{Config: config.Load(), Pipeline: stubFactory(t, stubModel{text: "1. Save."})}

	out, err := run(t, env, "recommend", "--format", "yaml")
	require.NoError(t, err)
	assert.NotContains(t, out, "{")

	var doc struct {
		Breakdown struct {
			Assets struct {
				Categories yaml.Node `yaml:"categories"`
			} `yaml:"assets"`
		} `yaml:"breakdown"`
		Summary struct {
			SavingsRate float64 `yaml:"savingsRate"`
		} `yaml:"financialSummary"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 25.0, doc.Summary.SavingsRate)

	cats := doc.Breakdown.Assets.Categories.Content
	require.Len(t, cats, 4)
	assert.Equal(t, "Stocks", cats[0].Value)
	assert.Equal(t, "Cash", cats[2].Value)
}

func TestRecommend_FactoryError(t *testing.T) {
	env := &Env{
		Config: config.Load(),
		Pipeline: func(context.Context, *config.Config, *log.Logger) (*advisor.Pipeline, func(), error) {
			return nil, nil, errors.New("no credentials")
		},
	}
	_, err := run(t, env, "recommend")
	assert.ErrorContains(t, err, "no credentials")
}

func TestProbe(t *testing.T) {
	env := &Env{Config: config.Load(), Pipeline: stubFactory(t, stubModel{text: "Connection successful"})}
	out, err := run(t, env, "probe")
	require.NoError(t, err)
	assert.Contains(t, out, "connection successful")

	env = &Env{Config: config.Load(), Pipeline: stubFactory(t, stubModel{err: errors.New("401 unauthorized")})}
	out, err = run(t, env, "probe", "--format", "json")
	assert.ErrorIs(t, err, ErrProbeFailed)
	assert.Contains(t, out, `"success": false`)
	assert.Contains(t, out, "401 unauthorized")
}

func TestMigrate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "wealth.db")
	env := &Env{Config: &config.Config{SQLiteDBPath: dbPath}}

	out, err := run(t, env, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1 (dirty=false)")

	// Re-running is a no-op.
	out, err = run(t, env, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")
}

func TestNewModel_WithoutCredentialsServesFallback(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(log.Config{Level: log.ParseLevel("info"), Format: "json", Output: &logs})

	for _, cfg := range []*config.Config{
		{GenAIBackend: advisor.BackendGemini},
		{GenAIBackend: advisor.BackendVertex},
	} {
		model := NewModel(context.Background(), cfg, logger)
		assert.Nil(t, model, "backend %s", cfg.GenAIBackend)

		store := memory.New()
		_, err := store.CreateRecord(context.Background(), core.Record{
			OwnerID: "u1", Kind: core.KindAsset, Description: "Cash", Category: "Cash", Amount: 500,
		})
		require.NoError(t, err)
		res, err := advisor.NewPipeline(store, advisor.NewInferenceClient(model, advisor.DefaultInferenceConfig())).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, advisor.SourceFallback, res.Source)
		assert.NotEmpty(t, res.Recommendations)
	}
	assert.Contains(t, logs.String(), "serving fallback recommendations")
}

func TestNewModel_WithCredentials(t *testing.T) {
	cfg := &config.Config{GenAIBackend: advisor.BackendGemini, GeminiAPIKey: "test-key"}
	assert.NotNil(t, NewModel(context.Background(), cfg, log.Discard()))
}
