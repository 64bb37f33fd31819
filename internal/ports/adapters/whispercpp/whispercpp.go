package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/vidcap/internal/ports"
	"github.com/forPelevin/vidcap/internal/types"
)

type Adapter struct {
	bin       string
	modelsDir string
	tier      types.ModelTier
	run       func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(binPath, modelsDir string, tier types.ModelTier) *Adapter {
	if tier == "" {
		tier = types.TierMedium
	}
	return &Adapter{bin: binPath, modelsDir: modelsDir, tier: tier, run: combinedOutput}
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

// ModelPath is the ggml model file used for the configured tier.
func (a *Adapter) ModelPath() string {
	return ModelPath(a.modelsDir, a.tier)
}

func ModelPath(modelsDir string, tier types.ModelTier) string {
	name := string(tier)
	if tier == types.TierLarge {
		name = "large-v3"
	}
	return filepath.Join(modelsDir, "ggml-"+name+".bin")
}

// Transcribe runs whisper.cpp with language auto-detection. Segments are
// returned in engine order with their text untouched.
func (a *Adapter) Transcribe(ctx context.Context, wavPath string) (types.Transcript, error) {
	model := a.ModelPath()
	if _, err := os.Stat(model); err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp model: %w: %w", ports.ErrTranscription, err)
	}

	outPrefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath))
	args := []string{
		"-m", model,
		"-f", wavPath,
		"-l", "auto",
		"-oj",
		"-of", outPrefix,
	}
	b, err := a.run(ctx, a.bin, args...)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w: %w\n%s", ports.ErrTranscription, err, string(b))
	}

	jsonPath := outPrefix + ".json"
	jb, err := os.ReadFile(jsonPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read whisper.cpp output: %w: %w", ports.ErrTranscription, err)
	}
	defer os.Remove(jsonPath)

	tr, err := parseOutput(jb)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper.cpp output: %w: %w", ports.ErrTranscription, err)
	}
	return tr, nil
}

type output struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseOutput(b []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, err
	}
	tr := types.Transcript{
		Language: strings.ToLower(strings.TrimSpace(out.Result.Language)),
		Segments: make([]types.Segment, 0, len(out.Transcription)),
	}
	if tr.Language == "" || tr.Language == "auto" {
		tr.Language = types.LanguageUnknown
	}
	for _, s := range out.Transcription {
		tr.Segments = append(tr.Segments, types.Segment{
			Start: float64(s.Offsets.From) / 1000,
			End:   float64(s.Offsets.To) / 1000,
			Text:  s.Text,
		})
	}
	return tr, nil
}
