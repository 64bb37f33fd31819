//go:build integration

package itest

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"testing"
)

type probedStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

func probeStreams(path string) ([]probedStream, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "stream=codec_name,codec_type,sample_rate,channels",
		"-of", "json",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	var out struct {
		Streams []probedStream `json:"streams"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return out.Streams, nil
}

func probeDurationSeconds(path string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func streamsOfType(streams []probedStream, codecType string) []probedStream {
	var out []probedStream
	for _, s := range streams {
		if s.CodecType == codecType {
			out = append(out, s)
		}
	}
	return out
}

func requireTools(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not on PATH", name)
		}
	}
}

// makeVideo synthesizes an H.264 clip with an optional silent AAC track.
func makeVideo(t *testing.T, path string, seconds int, withAudio bool) {
	t.Helper()
	args := []string{"-y",
		"-f", "lavfi", "-i", fmt.Sprintf("color=c=black:s=320x240:d=%d", seconds),
	}
	if withAudio {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=r=44100:cl=stereo", "-shortest", "-c:a", "aac")
	}
	args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p", path)
	if b, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
}

// streamHash hashes the packets of the selected streams (for example "v" or
// "a") without decoding, so two files compare equal only when the bitstream
// was copied untouched.
func streamHash(t *testing.T, path, selector string) string {
	t.Helper()
	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-i", path,
		"-map", "0:"+selector,
		"-c", "copy",
		"-f", "streamhash",
		"-",
	)
	b, err := cmd.Output()
	if err != nil {
		t.Fatalf("streamhash %s of %s: %v", selector, path, err)
	}
	out := strings.TrimSpace(string(b))
	if out == "" {
		t.Fatalf("empty streamhash %s of %s", selector, path)
	}
	return out
}
