package languagetool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/forPelevin/vidcap/internal/ports"
)

const (
	requestTimeout = 30 * time.Second
	probeTimeout   = 5 * time.Second
)

type Options struct {
	BaseURL string
	// Username and APIKey are only needed for LanguageTool Premium.
	Username string
	APIKey   string
	Client   *http.Client
}

type Adapter struct {
	baseURL  string
	locale   string
	username string
	key      string
	client   *http.Client
}

// Factory returns a constructor that connects a fresh Adapter per locale.
func Factory(opts Options) ports.GrammarFactory {
	return func(ctx context.Context, locale string) (ports.GrammarService, error) {
		a, err := Connect(ctx, opts, locale)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

// Connect verifies that the server is reachable and supports locale.
func Connect(ctx context.Context, opts Options, locale string) (*Adapter, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return nil, errors.New("languagetool: locale is empty")
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	a := &Adapter{
		baseURL:  normalizeBaseURL(opts.BaseURL),
		locale:   locale,
		username: opts.Username,
		key:      opts.APIKey,
		client:   client,
	}

	langs, err := a.Languages(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range langs {
		if strings.EqualFold(l.LongCode, locale) || strings.EqualFold(l.Code, locale) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("languagetool: locale %q is not supported by %s", locale, a.baseURL)
}

// Probe reports whether the server answers the languages endpoint.
func Probe(ctx context.Context, opts Options) error {
	a := &Adapter{baseURL: normalizeBaseURL(opts.BaseURL), client: opts.Client, key: opts.APIKey}
	if a.client == nil {
		a.client = &http.Client{Timeout: probeTimeout}
	}
	_, err := a.Languages(ctx)
	return err
}

type Language struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	LongCode string `json:"longCode"`
}

// Languages lists the locales the server supports.
func (a *Adapter) Languages(ctx context.Context) ([]Language, error) {
	reqCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, a.baseURL+"/v2/languages", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("languagetool unreachable at %s: %w", a.baseURL, err)
	}
	defer resp.Body.Close()
	if err := a.checkStatus(resp); err != nil {
		return nil, err
	}
	var out []Language
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode languagetool languages: %w", err)
	}
	return out, nil
}

type match struct {
	Offset       int `json:"offset"`
	Length       int `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
}

// Correct applies the first suggested replacement of every rule match.
func (a *Adapter) Correct(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", a.locale)
	if a.username != "" && a.key != "" {
		form.Set("username", a.username)
		form.Set("apiKey", a.key)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("languagetool timeout after %s", requestTimeout)
		}
		return "", errors.New(a.redact(err.Error()))
	}
	defer resp.Body.Close()
	if err := a.checkStatus(resp); err != nil {
		return "", err
	}

	var raw struct {
		Matches []match `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode languagetool check: %w", err)
	}
	return applyMatches(text, raw.Matches), nil
}

// Close is a no-op; the HTTP client keeps no per-adapter state.
func (a *Adapter) Close() error { return nil }

func (a *Adapter) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	rb, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if readErr != nil {
		return fmt.Errorf("languagetool status %d and read body failed: %v", resp.StatusCode, readErr)
	}
	return fmt.Errorf("languagetool status %d: %s", resp.StatusCode, truncate(a.redact(string(rb)), 400))
}

// applyMatches works on UTF-16 offsets, which is what the server reports.
// Overlapping matches and matches without replacements are skipped.
func applyMatches(text string, matches []match) string {
	if len(matches) == 0 {
		return text
	}
	sorted := make([]match, 0, len(matches))
	for _, m := range matches {
		if len(m.Replacements) > 0 && m.Offset >= 0 && m.Length >= 0 {
			sorted = append(sorted, m)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	src := utf16.Encode([]rune(text))
	out := make([]uint16, 0, len(src))
	pos := 0
	for _, m := range sorted {
		end := m.Offset + m.Length
		if m.Offset < pos || end > len(src) {
			continue
		}
		out = append(out, src[pos:m.Offset]...)
		out = append(out, utf16.Encode([]rune(m.Replacements[0].Value))...)
		pos = end
	}
	out = append(out, src[pos:]...)
	return string(utf16.Decode(out))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;&]+)`)

func (a *Adapter) redact(s string) string {
	return redactSecrets(s, a.key)
}

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
		out = strings.ReplaceAll(out, url.QueryEscape(apiKey), "[REDACTED]")
	}
	return apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
}
