package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/forPelevin/vidcap/internal/domain/grammar"
	"github.com/forPelevin/vidcap/internal/ports"
	"github.com/forPelevin/vidcap/internal/types"
)

func TestRun_ModeSelection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		mode types.CaptionMode
		want string
	}{
		{name: "burn-in", mode: types.ModeBurnIn, want: "burn"},
		{name: "soft-embed", mode: types.ModeSoftEmbed, want: "embed"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := testArtifacts(t)
			media := &fakeMedia{}
			uc := New(Deps{Media: media, ASR: fakeASR{tr: testTranscript()}})

			res, err := uc.Run(context.Background(), Input{InputVideo: "in.mp4", Mode: tc.mode, Out: out})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if len(media.muxCalls) != 1 || media.muxCalls[0] != tc.want {
				t.Fatalf("expected single %s call, got %v", tc.want, media.muxCalls)
			}
			if res.Artifacts.Video != out.Video {
				t.Fatalf("unexpected video artifact %q", res.Artifacts.Video)
			}
			if _, err := os.Stat(out.Audio); !os.IsNotExist(err) {
				t.Fatalf("expected intermediate audio removed, stat err=%v", err)
			}
		})
	}
}

func TestRun_WritesArtifactsInOrder(t *testing.T) {
	t.Parallel()

	out := testArtifacts(t)
	tr := testTranscript()
	uc := New(Deps{Media: &fakeMedia{}, ASR: fakeASR{tr: tr}})
	res, err := uc.Run(context.Background(), Input{InputVideo: "in.mp4", Out: out})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Language != "en" || res.Grammar.Applied {
		t.Fatalf("unexpected result %+v", res)
	}

	srt := readFile(t, out.Subtitles)
	if n := strings.Count(srt, " --> "); n != len(tr.Segments) {
		t.Fatalf("expected %d cues, got %d", len(tr.Segments), n)
	}
	first := strings.Index(srt, "Hello world.")
	second := strings.Index(srt, "Second line.")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("cue order not preserved:\n%s", srt)
	}
	if got := readFile(t, out.Transcript); got != "Hello world. Second line." {
		t.Fatalf("unexpected transcript %q", got)
	}
}

func TestRun_GrammarUnavailableStillCompletes(t *testing.T) {
	t.Parallel()

	out := testArtifacts(t)
	tr := testTranscript()
	corrector := grammar.NewCorrector(func(context.Context, string) (ports.GrammarService, error) {
		return nil, errors.New("languagetool unreachable")
	}, grammar.Locales{Default: "en-US"}, nil)

	media := &fakeMedia{}
	uc := New(Deps{Media: media, ASR: fakeASR{tr: tr}, Grammar: corrector})
	res, err := uc.Run(context.Background(), Input{InputVideo: "in.mp4", Out: out})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Grammar.Applied {
		t.Fatalf("expected grammar to be skipped")
	}
	if !reflect.DeepEqual(res.Segments, tr.Segments) {
		t.Fatalf("segments changed: %+v", res.Segments)
	}
	for _, p := range []string{out.Subtitles, out.Transcript} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing artifact %s: %v", p, err)
		}
	}
	if len(media.muxCalls) != 1 {
		t.Fatalf("expected captioned video, got %v", media.muxCalls)
	}
}

func TestRun_GrammarCorrectionFeedsOutputs(t *testing.T) {
	t.Parallel()

	out := testArtifacts(t)
	corrector := grammar.NewCorrector(func(context.Context, string) (ports.GrammarService, error) {
		return upperService{}, nil
	}, grammar.Locales{Default: "en-US"}, nil)

	uc := New(Deps{Media: &fakeMedia{}, ASR: fakeASR{tr: testTranscript()}, Grammar: corrector})
	res, err := uc.Run(context.Background(), Input{InputVideo: "in.mp4", Out: out})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Grammar.Applied || res.Grammar.Corrections != 2 {
		t.Fatalf("unexpected outcome %+v", res.Grammar)
	}
	if got := readFile(t, out.Transcript); got != "HELLO WORLD. SECOND LINE." {
		t.Fatalf("unexpected transcript %q", got)
	}
}

func TestRun_SilentAudio(t *testing.T) {
	t.Parallel()

	out := testArtifacts(t)
	media := &fakeMedia{}
	uc := New(Deps{Media: media, ASR: fakeASR{tr: types.Transcript{Language: types.LanguageUnknown}}})
	if _, err := uc.Run(context.Background(), Input{InputVideo: "in.mp4", Out: out}); err != nil {
		t.Fatalf("silent input must not fail: %v", err)
	}
	if got := readFile(t, out.Subtitles); got != "" {
		t.Fatalf("expected empty subtitle file, got %q", got)
	}
	if len(media.muxCalls) != 1 {
		t.Fatalf("expected captioned video even without speech")
	}
}

func TestRun_StageFailures(t *testing.T) {
	t.Parallel()

	boom := fmt.Errorf("%w: exit status 1", ports.ErrMediaProcessing)
	cases := []struct {
		name      string
		media     *fakeMedia
		asr       fakeASR
		wantStage Stage
		wantIs    error
		audioLeft bool
	}{
		{
			name:      "extract",
			media:     &fakeMedia{extractErr: boom},
			asr:       fakeASR{tr: testTranscript()},
			wantStage: StageExtract,
			wantIs:    ports.ErrMediaProcessing,
		},
		{
			name:      "transcribe",
			media:     &fakeMedia{},
			asr:       fakeASR{err: fmt.Errorf("%w: model missing", ports.ErrTranscription)},
			wantStage: StageTranscribe,
			wantIs:    ports.ErrTranscription,
			audioLeft: true,
		},
		{
			name:      "mux",
			media:     &fakeMedia{muxErr: boom},
			asr:       fakeASR{tr: testTranscript()},
			wantStage: StageMux,
			wantIs:    ports.ErrMediaProcessing,
			audioLeft: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := testArtifacts(t)
			uc := New(Deps{Media: tc.media, ASR: tc.asr})
			_, err := uc.Run(context.Background(), Input{InputVideo: "in.mp4", Out: out})
			if err == nil {
				t.Fatalf("expected failure")
			}
			stage, ok := FailedStage(err)
			if !ok || stage != tc.wantStage {
				t.Fatalf("expected stage %s, got %q (%v)", tc.wantStage, stage, err)
			}
			if !errors.Is(err, tc.wantIs) {
				t.Fatalf("expected %v in chain, got %v", tc.wantIs, err)
			}
			_, statErr := os.Stat(out.Audio)
			if tc.audioLeft && statErr != nil {
				t.Fatalf("expected intermediate audio left for inspection: %v", statErr)
			}
		})
	}
}

func TestRun_WriteFailure(t *testing.T) {
	t.Parallel()

	out := testArtifacts(t)
	out.Subtitles = filepath.Join(filepath.Dir(out.Subtitles), "missing", "a.srt")
	media := &fakeMedia{}
	uc := New(Deps{Media: media, ASR: fakeASR{tr: testTranscript()}})
	_, err := uc.Run(context.Background(), Input{InputVideo: "in.mp4", Out: out})
	if stage, ok := FailedStage(err); !ok || stage != StageWrite {
		t.Fatalf("expected write stage failure, got %v", err)
	}
	if len(media.muxCalls) != 0 {
		t.Fatalf("mux must not run after write failure")
	}
}

type fakeMedia struct {
	extractErr error
	muxErr     error
	muxCalls   []string
}

func (f *fakeMedia) ExtractAudio(_ context.Context, _, outWav string) error {
	if f.extractErr != nil {
		return f.extractErr
	}
	return os.WriteFile(outWav, []byte("RIFF"), 0o644)
}

func (f *fakeMedia) BurnSubtitles(_ context.Context, _, _, _ string) error {
	f.muxCalls = append(f.muxCalls, "burn")
	return f.muxErr
}

func (f *fakeMedia) EmbedSubtitles(_ context.Context, _, _, _ string) error {
	f.muxCalls = append(f.muxCalls, "embed")
	return f.muxErr
}

type fakeASR struct {
	tr  types.Transcript
	err error
}

func (f fakeASR) Transcribe(_ context.Context, _ string) (types.Transcript, error) {
	return f.tr, f.err
}

type upperService struct{}

func (upperService) Correct(_ context.Context, text string) (string, error) {
	return strings.ToUpper(text), nil
}

func (upperService) Close() error { return nil }

func testTranscript() types.Transcript {
	return types.Transcript{
		Language: "en",
		Segments: []types.Segment{
			{Start: 0, End: 1.5, Text: " Hello world."},
			{Start: 1.5, End: 3.25, Text: " Second line."},
		},
	}
}

func testArtifacts(t *testing.T) types.Artifacts {
	t.Helper()
	dir := t.TempDir()
	return types.Artifacts{
		Audio:      filepath.Join(dir, "in_temp.wav"),
		Subtitles:  filepath.Join(dir, "in.srt"),
		Transcript: filepath.Join(dir, "in_transcript.txt"),
		Video:      filepath.Join(dir, "in_captioned.mp4"),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}
