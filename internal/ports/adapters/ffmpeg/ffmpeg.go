package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/forPelevin/vidcap/internal/ports"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, run: combinedOutput}
}

// WithRunner replaces process execution, for tests.
func (a *Adapter) WithRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) *Adapter {
	if run != nil {
		a.run = run
	}
	return a
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ExtractAudio writes a mono 16 kHz 16-bit PCM WAV, replacing outWav.
func (a *Adapter) ExtractAudio(ctx context.Context, inVideo, outWav string) error {
	if n, err := a.CountAudioStreams(ctx, inVideo); err == nil && n == 0 {
		return fmt.Errorf("ffmpeg extract audio: %w: %s has no audio stream", ports.ErrMediaProcessing, inVideo)
	}
	b, err := a.run(ctx, a.ffmpeg, extractArgs(inVideo, outWav)...)
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w: %w\n%s", ports.ErrMediaProcessing, err, string(b))
	}
	return nil
}

// BurnSubtitles re-encodes the video with the captions drawn into the frames.
// Audio is stream-copied.
func (a *Adapter) BurnSubtitles(ctx context.Context, inVideo, srtPath, outVideo string) error {
	b, err := a.run(ctx, a.ffmpeg, burnArgs(inVideo, srtPath, outVideo)...)
	if err != nil {
		return fmt.Errorf("ffmpeg burn subtitles: %w: %w\n%s", ports.ErrMediaProcessing, err, string(b))
	}
	return nil
}

// EmbedSubtitles stream-copies video and audio and adds the captions as a
// toggleable mov_text track.
func (a *Adapter) EmbedSubtitles(ctx context.Context, inVideo, srtPath, outVideo string) error {
	b, err := a.run(ctx, a.ffmpeg, embedArgs(inVideo, srtPath, outVideo)...)
	if err != nil {
		return fmt.Errorf("ffmpeg embed subtitles: %w: %w\n%s", ports.ErrMediaProcessing, err, string(b))
	}
	return nil
}

// Stream is the subset of ffprobe stream metadata vidcap inspects.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
}

func (a *Adapter) ProbeStreams(ctx context.Context, inVideo string) ([]Stream, error) {
	b, err := a.run(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "stream=index,codec_name,codec_type",
		"-of", "json",
		inVideo,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe streams: %w\n%s", err, string(b))
	}
	var out struct {
		Streams []Stream `json:"streams"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return out.Streams, nil
}

// CountAudioStreams returns an error when ffprobe is missing or cannot read
// the input; callers treat that as "unknown" and let ffmpeg decide.
func (a *Adapter) CountAudioStreams(ctx context.Context, inVideo string) (int, error) {
	streams, err := a.ProbeStreams(ctx, inVideo)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 0, fmt.Errorf("ffprobe not available: %w", err)
		}
		return 0, err
	}
	n := 0
	for _, s := range streams {
		if strings.EqualFold(s.CodecType, "audio") {
			n++
		}
	}
	return n, nil
}

func extractArgs(inVideo, outWav string) []string {
	return []string{
		"-y",
		"-i", inVideo,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outWav,
	}
}

func burnArgs(inVideo, srtPath, outVideo string) []string {
	return []string{
		"-y",
		"-i", inVideo,
		"-vf", "subtitles='" + escapeFilterPath(srtPath) + "'",
		"-c:a", "copy",
		outVideo,
	}
}

func embedArgs(inVideo, srtPath, outVideo string) []string {
	return []string{
		"-y",
		"-i", inVideo,
		"-i", srtPath,
		"-c:v", "copy",
		"-c:a", "copy",
		"-c:s", "mov_text",
		outVideo,
	}
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}
