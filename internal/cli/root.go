package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"wealth/internal/advisor"
	"wealth/internal/backend"
	"wealth/internal/config"
	"wealth/internal/log"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormats lists the values accepted by --format.
var ValidFormats = []string{FormatText, FormatJSON, FormatYAML}

// PipelineFactory builds a recommendation pipeline. release frees whatever
// the pipeline reads from.
type PipelineFactory func(ctx context.Context, cfg *config.Config, logger *log.Logger) (p *advisor.Pipeline, release func(), err error)

// Env carries what commands need from the process.
type Env struct {
	Config   *config.Config
	Logger   *log.Logger
	Pipeline PipelineFactory
}

// RootOptions holds global flags.
type RootOptions struct {
	Format string
}

// NewRootCommand creates the wealthctl command tree.
func NewRootCommand(env *Env) *cobra.Command {
	opts := &RootOptions{}
	if env.Logger == nil {
		env.Logger = log.Discard()
	}
	if env.Pipeline == nil {
		env.Pipeline = DefaultPipeline
	}

	cmd := &cobra.Command{
		Use:           "wealthctl",
		Short:         "Operate the wealth management service",
		Long:          "Run schema migrations and generate financial recommendations from the configured record store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|yaml)")

	cmd.AddCommand(newMigrateCommand(env))
	cmd.AddCommand(newRecommendCommand(env, opts))
	cmd.AddCommand(newProbeCommand(env, opts))
	return cmd
}

// DefaultPipeline opens the configured backend and the generative model.
func DefaultPipeline(ctx context.Context, cfg *config.Config, logger *log.Logger) (*advisor.Pipeline, func(), error) {
	if err := cfg.ValidateAdvisor(); err != nil {
		return nil, nil, err
	}
	b, err := backend.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	model, err := advisor.NewGeminiModel(ctx, cfg.GeminiConfig())
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	p := advisor.NewPipeline(b.Reader, advisor.NewInferenceClient(model, cfg.InferenceConfig()))
	return p, func() { b.Close() }, nil
}
