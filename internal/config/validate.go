package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/forPelevin/vidcap/internal/logging"
	"github.com/forPelevin/vidcap/internal/ports/adapters/languagetool"
	"github.com/forPelevin/vidcap/internal/types"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateGrammar(); err != nil {
		return err
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.FFmpeg) == "" {
		return errors.New("paths.ffmpeg must be set")
	}
	if strings.TrimSpace(c.Paths.WhisperBin) == "" {
		return errors.New("paths.whisper_bin must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if _, ok := types.ParseModelTier(c.Transcription.Model); !ok {
		names := make([]string, 0, len(types.ModelTiers))
		for _, t := range types.ModelTiers {
			names = append(names, string(t))
		}
		return fmt.Errorf("transcription.model %q is not one of %s", c.Transcription.Model, strings.Join(names, ", "))
	}
	return nil
}

func (c *Config) validateGrammar() error {
	if _, err := language.Parse(c.Grammar.DefaultLocale); err != nil {
		return fmt.Errorf("grammar.default_locale %q: %w", c.Grammar.DefaultLocale, err)
	}
	codes := make([]string, 0, len(c.Grammar.Locales))
	for code := range c.Grammar.Locales {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		loc := c.Grammar.Locales[code]
		if loc == "" {
			return fmt.Errorf("grammar.locales.%s must not be empty", code)
		}
		if _, err := language.Parse(loc); err != nil {
			return fmt.Errorf("grammar.locales.%s %q: %w", code, loc, err)
		}
	}
	if !c.Grammar.Enabled {
		return nil
	}
	return languagetool.ValidateBaseURL(c.Grammar.BaseURL, c.Grammar.AllowedHosts)
}
