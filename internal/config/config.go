package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/forPelevin/vidcap/internal/types"
)

// Paths contains tool locations and the output directory.
type Paths struct {
	OutputDir        string `toml:"output_dir"`
	FFmpeg           string `toml:"ffmpeg"`
	FFprobe          string `toml:"ffprobe"`
	WhisperBin       string `toml:"whisper_bin"`
	WhisperModelsDir string `toml:"whisper_models_dir"`
}

// Transcription contains speech recognition settings.
type Transcription struct {
	// Model is one of tiny, base, small, medium, large.
	Model string `toml:"model"`
}

// Grammar contains LanguageTool connection settings and the locale table.
type Grammar struct {
	Enabled       bool              `toml:"enabled"`
	BaseURL       string            `toml:"base_url"`
	AllowedHosts  []string          `toml:"allowed_hosts"`
	Username      string            `toml:"username"`
	APIKey        string            `toml:"api_key"`
	DefaultLocale string            `toml:"default_locale"`
	Locales       map[string]string `toml:"locales"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for vidcap.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Grammar       Grammar       `toml:"grammar"`
	Logging       Logging       `toml:"logging"`
}

const configPathEnv = "VIDCAP_CONFIG"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vidcap/config.toml")
}

// Load resolves, parses, applies environment overrides and validates the
// configuration. A missing default file is not an error; a missing file
// named explicitly is.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	explicit := strings.TrimSpace(path)
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv(configPathEnv))
	}
	if explicit != "" {
		expanded, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Paths.OutputDir, "VIDCAP_OUTPUT_DIR")
	set(&c.Paths.FFmpeg, "VIDCAP_FFMPEG")
	set(&c.Paths.FFprobe, "VIDCAP_FFPROBE")
	set(&c.Paths.WhisperBin, "VIDCAP_WHISPER_BIN")
	set(&c.Paths.WhisperModelsDir, "VIDCAP_WHISPER_MODELS_DIR")
	set(&c.Transcription.Model, "VIDCAP_MODEL")
	set(&c.Grammar.BaseURL, "LANGUAGETOOL_BASE_URL")
	set(&c.Grammar.Username, "LANGUAGETOOL_USERNAME")
	set(&c.Grammar.APIKey, "LANGUAGETOOL_API_KEY")
	set(&c.Logging.Level, "VIDCAP_LOG_LEVEL")
	set(&c.Logging.Format, "VIDCAP_LOG_FORMAT")

	if v, ok := lookup("LANGUAGETOOL_ALLOWED_HOSTS"); ok && strings.TrimSpace(v) != "" {
		c.Grammar.AllowedHosts = splitList(v)
	}
}

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WhisperModelsDir, err = expandPath(c.Paths.WhisperModelsDir); err != nil {
		return fmt.Errorf("paths.whisper_models_dir: %w", err)
	}
	for _, bin := range []*string{&c.Paths.FFmpeg, &c.Paths.FFprobe, &c.Paths.WhisperBin} {
		if *bin, err = expandBinary(*bin); err != nil {
			return fmt.Errorf("paths: %w", err)
		}
	}

	c.Transcription.Model = strings.ToLower(strings.TrimSpace(c.Transcription.Model))
	if c.Transcription.Model == "" {
		c.Transcription.Model = string(defaultModelTier)
	}

	c.Grammar.BaseURL = strings.TrimSpace(c.Grammar.BaseURL)
	c.Grammar.DefaultLocale = strings.TrimSpace(c.Grammar.DefaultLocale)
	if c.Grammar.DefaultLocale == "" {
		c.Grammar.DefaultLocale = defaultLocale
	}
	// File keys decode on top of the defaults; keys written with other
	// casing are applied last so they win over the default lowercase entry.
	locales := make(map[string]string, len(c.Grammar.Locales))
	var mixed []string
	for code, loc := range c.Grammar.Locales {
		key := strings.ToLower(strings.TrimSpace(code))
		if key == "" {
			continue
		}
		if key != code {
			mixed = append(mixed, code)
			continue
		}
		locales[key] = strings.TrimSpace(loc)
	}
	for _, code := range mixed {
		locales[strings.ToLower(strings.TrimSpace(code))] = strings.TrimSpace(c.Grammar.Locales[code])
	}
	c.Grammar.Locales = locales

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

// ModelTier returns the validated transcription tier.
func (c *Config) ModelTier() types.ModelTier {
	tier, ok := types.ParseModelTier(c.Transcription.Model)
	if !ok {
		return defaultModelTier
	}
	return tier
}

// expandBinary leaves bare command names for PATH lookup and expands
// anything that looks like a filesystem path.
func expandBinary(bin string) (string, error) {
	bin = strings.TrimSpace(bin)
	if bin == "" || !strings.ContainsAny(bin, `/\~`) {
		return bin, nil
	}
	return expandPath(bin)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
