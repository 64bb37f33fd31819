package config

import (
	"maps"

	"github.com/forPelevin/vidcap/internal/ports/adapters/languagetool"
	"github.com/forPelevin/vidcap/internal/types"
)

const (
	defaultOutputDir        = "output"
	defaultModelTier        = types.TierMedium
	defaultLocale           = "en-US"
	defaultFFmpeg           = "ffmpeg"
	defaultFFprobe          = "ffprobe"
	defaultWhisperBin       = "whisper-cli"
	defaultWhisperModelsDir = "~/.local/share/whisper.cpp/models"
)

var defaultLocales = map[string]string{
	"it": "it",
	"en": "en-US",
	"es": "es",
	"fr": "fr",
	"de": "de-DE",
	"pt": "pt-PT",
	"nl": "nl",
	"pl": "pl-PL",
	"ru": "ru-RU",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:        defaultOutputDir,
			FFmpeg:           defaultFFmpeg,
			FFprobe:          defaultFFprobe,
			WhisperBin:       defaultWhisperBin,
			WhisperModelsDir: defaultWhisperModelsDir,
		},
		Transcription: Transcription{
			Model: string(defaultModelTier),
		},
		Grammar: Grammar{
			Enabled:       true,
			BaseURL:       languagetool.DefaultBaseURL,
			DefaultLocale: defaultLocale,
			Locales:       maps.Clone(defaultLocales),
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
