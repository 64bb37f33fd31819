package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/forPelevin/vidcap/internal/config"
	"github.com/forPelevin/vidcap/internal/deps"
	"github.com/forPelevin/vidcap/internal/domain/grammar"
	"github.com/forPelevin/vidcap/internal/logging"
	"github.com/forPelevin/vidcap/internal/ports"
	"github.com/forPelevin/vidcap/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/vidcap/internal/ports/adapters/languagetool"
	"github.com/forPelevin/vidcap/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/vidcap/internal/types"
	"github.com/forPelevin/vidcap/internal/usecase"
)

type Config struct {
	InputVideo     string
	Mode           types.CaptionMode
	GrammarEnabled bool
	Logger         *slog.Logger

	// App carries tool paths, model tier and service settings.
	App config.Config
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.InputVideo) == "" {
		return errors.New("input is empty")
	}
	info, err := os.Stat(c.InputVideo)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input %s is a directory", c.InputVideo)
	}
	if strings.TrimSpace(c.App.Paths.OutputDir) == "" {
		return errors.New("output dir is empty")
	}
	return nil
}

// Run captions one video and returns what the run produced.
func Run(ctx context.Context, cfg Config) (usecase.Result, error) {
	if err := cfg.Validate(); err != nil {
		return usecase.Result{}, err
	}

	runID := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	outDir := cfg.App.Paths.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return usecase.Result{}, fmt.Errorf("create output dir: %w", err)
	}
	artifacts := buildArtifacts(outDir, cfg.InputVideo, cfg.Mode)
	logger.Info("run started",
		logging.String("input", cfg.InputVideo),
		logging.String("output_dir", outDir),
		logging.String("mode", cfg.Mode.String()),
		logging.String("model", string(cfg.App.ModelTier())),
		logging.Bool("grammar", cfg.GrammarEnabled),
	)

	// adapters
	media := ffmpeg.New(cfg.App.Paths.FFmpeg, cfg.App.Paths.FFprobe)
	asr := whispercpp.New(cfg.App.Paths.WhisperBin, cfg.App.Paths.WhisperModelsDir, cfg.App.ModelTier())

	d := usecase.Deps{
		Media:  media,
		ASR:    asr,
		Logger: logger,
	}
	if cfg.GrammarEnabled {
		d.Grammar = grammar.NewCorrector(
			languagetool.Factory(grammarOptions(cfg.App)),
			Locales(cfg.App),
			logger,
		)
	}

	return usecase.New(d).Run(ctx, usecase.Input{
		InputVideo: cfg.InputVideo,
		Mode:       cfg.Mode,
		Out:        artifacts,
	})
}

// Locales converts the configured locale table into the grammar lookup.
func Locales(app config.Config) grammar.Locales {
	return grammar.Locales{Table: app.Grammar.Locales, Default: app.Grammar.DefaultLocale}
}

func grammarOptions(app config.Config) languagetool.Options {
	return languagetool.Options{
		BaseURL:  app.Grammar.BaseURL,
		Username: app.Grammar.Username,
		APIKey:   app.Grammar.APIKey,
	}
}

// CheckDependencies reports every external tool a run needs. LanguageTool is
// probed only when grammar correction is enabled and is always optional.
func CheckDependencies(ctx context.Context, app config.Config, grammarEnabled bool) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     app.Paths.FFmpeg,
			Description: "audio extraction and muxing",
			Remedy:      "install ffmpeg, e.g. brew install ffmpeg",
		},
		{
			Name:        "FFprobe",
			Command:     app.Paths.FFprobe,
			Description: "audio stream pre-check",
			Remedy:      "ships with ffmpeg",
			Optional:    true,
		},
		{
			Name:        "whisper.cpp",
			Command:     app.Paths.WhisperBin,
			Description: "speech recognition",
			Remedy:      "build whisper.cpp and set paths.whisper_bin or VIDCAP_WHISPER_BIN",
		},
	})

	model := whispercpp.ModelPath(app.Paths.WhisperModelsDir, app.ModelTier())
	statuses = append(statuses, deps.CheckFile(deps.Requirement{
		Name:        "Whisper model",
		Command:     model,
		Description: fmt.Sprintf("%s tier", app.ModelTier()),
		Remedy:      fmt.Sprintf("download %s into %s", filepath.Base(model), app.Paths.WhisperModelsDir),
	}))

	if grammarEnabled {
		opts := grammarOptions(app)
		statuses = append(statuses, deps.CheckService(ctx, deps.Requirement{
			Name:        "LanguageTool",
			Command:     app.Grammar.BaseURL,
			Description: "grammar correction",
			Remedy:      "grammar correction disabled",
			Optional:    true,
		}, func(ctx context.Context) error {
			return languagetool.Probe(ctx, opts)
		}))
	}
	return statuses
}

func buildArtifacts(outDir, inputVideo string, mode types.CaptionMode) types.Artifacts {
	stem := strings.TrimSuffix(filepath.Base(inputVideo), filepath.Ext(inputVideo))
	if stem == "" {
		stem = "input"
	}
	videoSuffix := "_captioned.mp4"
	if mode == types.ModeSoftEmbed {
		videoSuffix = "_captioned_soft.mp4"
	}
	return types.Artifacts{
		Audio:      filepath.Join(outDir, stem+"_temp.wav"),
		Subtitles:  filepath.Join(outDir, stem+".srt"),
		Transcript: filepath.Join(outDir, stem+"_transcript.txt"),
		Video:      filepath.Join(outDir, stem+videoSuffix),
	}
}

// ensure adapters implement ports
var _ ports.MediaTool = (*ffmpeg.Adapter)(nil)
var _ ports.Transcriber = (*whispercpp.Adapter)(nil)
var _ ports.GrammarService = (*languagetool.Adapter)(nil)
