package ports

import (
	"context"
	"errors"

	"github.com/forPelevin/vidcap/internal/types"
)

var (
	ErrMediaProcessing = errors.New("media processing failed")
	ErrTranscription   = errors.New("transcription failed")
)

type MediaTool interface {
	ExtractAudio(ctx context.Context, inVideo, outWav string) error
	BurnSubtitles(ctx context.Context, inVideo, srtPath, outVideo string) error
	EmbedSubtitles(ctx context.Context, inVideo, srtPath, outVideo string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (types.Transcript, error)
}

// GrammarService rewrites a single piece of text. Close releases the backend.
type GrammarService interface {
	Correct(ctx context.Context, text string) (string, error)
	Close() error
}

// GrammarFactory constructs a GrammarService for a locale such as "en-US".
type GrammarFactory func(ctx context.Context, locale string) (GrammarService, error)
