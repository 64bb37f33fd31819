package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/forPelevin/vidcap/internal/domain/grammar"
	"github.com/forPelevin/vidcap/internal/domain/subtitles"
	"github.com/forPelevin/vidcap/internal/logging"
	"github.com/forPelevin/vidcap/internal/ports"
	"github.com/forPelevin/vidcap/internal/types"
)

type Stage string

const (
	StageExtract    Stage = "extract"
	StageTranscribe Stage = "transcribe"
	StageWrite      Stage = "write"
	StageMux        Stage = "mux"
)

// StageError reports which stage aborted the run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

func fail(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// FailedStage returns the stage that produced err, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

type Deps struct {
	Media ports.MediaTool
	ASR   ports.Transcriber
	// Grammar is nil when correction is disabled.
	Grammar *grammar.Corrector
	Logger  *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	d.Logger = logging.NewComponentLogger(d.Logger, "usecase")
	return Usecase{d: d}
}

type Input struct {
	InputVideo string
	Mode       types.CaptionMode
	Out        types.Artifacts
}

type Result struct {
	Language  string
	Segments  []types.Segment
	Grammar   grammar.Outcome
	Artifacts types.Artifacts
}

// Run executes every stage in order. The intermediate audio file is removed
// only after all stages succeed; on failure it is left for inspection.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Logger

	started := time.Now()
	log.Info("extracting audio", logging.String(logging.FieldStage, string(StageExtract)), logging.String("audio", in.Out.Audio))
	if err := u.d.Media.ExtractAudio(ctx, in.InputVideo, in.Out.Audio); err != nil {
		return Result{}, fail(StageExtract, err)
	}

	log.Info("transcribing", logging.String(logging.FieldStage, string(StageTranscribe)))
	tr, err := u.d.ASR.Transcribe(ctx, in.Out.Audio)
	if err != nil {
		return Result{}, fail(StageTranscribe, err)
	}
	log.Info("transcribed",
		logging.String("language", tr.Language),
		logging.Int("segments", len(tr.Segments)),
	)

	outcome := grammar.Passthrough(tr.Segments)
	if u.d.Grammar != nil {
		outcome = u.d.Grammar.Correct(ctx, tr.Segments, tr.Language)
	}
	segments := outcome.Segments

	log.Info("writing subtitles", logging.String(logging.FieldStage, string(StageWrite)))
	if err := subtitles.WriteSRT(in.Out.Subtitles, segments); err != nil {
		return Result{}, fail(StageWrite, err)
	}
	if err := subtitles.WriteTranscript(in.Out.Transcript, segments); err != nil {
		return Result{}, fail(StageWrite, err)
	}

	log.Info("captioning video",
		logging.String(logging.FieldStage, string(StageMux)),
		logging.String("mode", in.Mode.String()),
	)
	switch in.Mode {
	case types.ModeSoftEmbed:
		err = u.d.Media.EmbedSubtitles(ctx, in.InputVideo, in.Out.Subtitles, in.Out.Video)
	default:
		err = u.d.Media.BurnSubtitles(ctx, in.InputVideo, in.Out.Subtitles, in.Out.Video)
	}
	if err != nil {
		return Result{}, fail(StageMux, err)
	}

	if err := os.Remove(in.Out.Audio); err != nil && !os.IsNotExist(err) {
		log.Warn("intermediate audio not removed", logging.Error(err), logging.String("audio", in.Out.Audio))
	}
	log.Info("captioning complete", logging.Duration("elapsed", time.Since(started)))

	return Result{
		Language:  tr.Language,
		Segments:  segments,
		Grammar:   outcome,
		Artifacts: in.Out,
	}, nil
}
