package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/vidcap/internal/config"
	"github.com/forPelevin/vidcap/internal/deps"
	"github.com/forPelevin/vidcap/internal/logging"
	"github.com/forPelevin/vidcap/internal/pipeline"
	"github.com/forPelevin/vidcap/internal/types"
)

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	checkOnly, _ := cmd.Flags().GetBool("check")
	soft, _ := cmd.Flags().GetBool("soft")
	noGrammar, _ := cmd.Flags().GetBool("no-grammar")

	if !checkOnly && len(args) == 0 {
		return errors.New("missing input video (or use --check)")
	}

	app, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  app.Logging.Level,
		Format: app.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "cli")

	grammarEnabled := app.Grammar.Enabled && !noGrammar
	statuses := pipeline.CheckDependencies(ctx, *app, grammarEnabled)
	missing := deps.MissingRequired(statuses)

	if checkOnly {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderDependencyTable(statuses, shouldColorize(out)))
		if len(missing) > 0 {
			return missingError(missing)
		}
		return nil
	}

	if len(missing) > 0 {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintln(errOut, renderDependencyTable(statuses, shouldColorize(errOut)))
		return missingError(missing)
	}
	for _, s := range statuses {
		if !s.Available {
			logger.Warn("optional dependency unavailable",
				logging.String("dependency", s.Name),
				logging.String(logging.FieldImpact, s.Detail),
			)
		}
	}

	absIn, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	mode := types.ModeBurnIn
	if soft {
		mode = types.ModeSoftEmbed
	}

	cfg := pipeline.Config{
		InputVideo:     absIn,
		Mode:           mode,
		GrammarEnabled: grammarEnabled,
		Logger:         logger,
		App:            *app,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderSummary(res, mode, shouldColorize(out)))
	return nil
}

// loadConfig reads the config file and layers command-line overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	app, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if outDir, _ := cmd.Flags().GetString("out"); strings.TrimSpace(outDir) != "" {
		abs, err := filepath.Abs(outDir)
		if err != nil {
			return nil, err
		}
		app.Paths.OutputDir = abs
	}
	if model, _ := cmd.Flags().GetString("model"); strings.TrimSpace(model) != "" {
		app.Transcription.Model = strings.ToLower(strings.TrimSpace(model))
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

func missingError(missing []deps.Status) error {
	names := make([]string, 0, len(missing))
	for _, s := range missing {
		names = append(names, s.Name)
	}
	return fmt.Errorf("missing required dependencies: %s", strings.Join(names, ", "))
}
