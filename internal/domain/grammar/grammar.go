package grammar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/forPelevin/vidcap/internal/logging"
	"github.com/forPelevin/vidcap/internal/ports"
	"github.com/forPelevin/vidcap/internal/types"
)

// Availability is either Available(service) or Unavailable(reason).
type Availability struct {
	service ports.GrammarService
	reason  string
}

func Available(s ports.GrammarService) Availability {
	return Availability{service: s}
}

func Unavailable(reason string) Availability {
	if strings.TrimSpace(reason) == "" {
		reason = "grammar service unavailable"
	}
	return Availability{reason: reason}
}

func (a Availability) Service() (ports.GrammarService, bool) {
	return a.service, a.service != nil
}

func (a Availability) Reason() string { return a.reason }

// Outcome is the result of one correction pass. When Applied is false the
// Segments slice is the caller's input, untouched.
type Outcome struct {
	Segments    []types.Segment
	Applied     bool
	Corrections int
	Locale      string
	Reason      string
}

// Locales maps engine language codes onto service locales.
type Locales struct {
	Table   map[string]string
	Default string
}

// Resolve returns the locale for an engine language code. Unmapped codes
// fall back to the base language of the code, then to Default.
func (l Locales) Resolve(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if loc, ok := l.Table[code]; ok && loc != "" {
		return loc
	}
	if code != "" && code != types.LanguageUnknown {
		if tag, err := language.Parse(code); err == nil {
			base, _ := tag.Base()
			if loc, ok := l.Table[base.String()]; ok && loc != "" {
				return loc
			}
		}
	}
	return l.Default
}

type Corrector struct {
	factory ports.GrammarFactory
	locales Locales
	logger  *slog.Logger
}

func NewCorrector(factory ports.GrammarFactory, locales Locales, logger *slog.Logger) *Corrector {
	return &Corrector{
		factory: factory,
		locales: locales,
		logger:  logging.NewComponentLogger(logger, "grammar"),
	}
}

// Connect attempts to construct the service. Any failure, including a panic
// inside the factory, yields Unavailable.
func (c *Corrector) Connect(ctx context.Context, locale string) (av Availability) {
	if c == nil || c.factory == nil {
		return Unavailable("grammar service not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			av = Unavailable(fmt.Sprintf("grammar service construction panicked: %v", r))
		}
	}()
	svc, err := c.factory(ctx, locale)
	if err != nil {
		return Unavailable(err.Error())
	}
	if svc == nil {
		return Unavailable("grammar service not constructed")
	}
	return Available(svc)
}

// Correct runs the service over every segment. Count, order and timing are
// never changed. Any failure abandons the whole pass and returns the input.
func (c *Corrector) Correct(ctx context.Context, segments []types.Segment, lang string) Outcome {
	locale := c.locales.Resolve(lang)
	c.logger.Info("correcting grammar",
		logging.String("language", lang),
		logging.String("locale", locale),
		logging.Int("segments", len(segments)),
	)

	av := c.Connect(ctx, locale)
	svc, ok := av.Service()
	if !ok {
		return c.degrade(segments, locale, av.Reason())
	}
	defer func() {
		if err := svc.Close(); err != nil {
			c.logger.Debug("grammar service close failed", logging.Error(err))
		}
	}()

	out, fixes, err := correctAll(ctx, svc, segments)
	if err != nil {
		return c.degrade(segments, locale, err.Error())
	}
	c.logger.Info("grammar corrections applied", logging.Int("corrections", fixes))
	return Outcome{Segments: out, Applied: true, Corrections: fixes, Locale: locale}
}

func correctAll(ctx context.Context, svc ports.GrammarService, segments []types.Segment) (out []types.Segment, fixes int, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, fixes, err = nil, 0, fmt.Errorf("grammar service panicked: %v", r)
		}
	}()
	out = make([]types.Segment, len(segments))
	for i, seg := range segments {
		original := seg.CleanText()
		fixed, cerr := svc.Correct(ctx, original)
		if cerr != nil {
			return nil, 0, fmt.Errorf("correct segment %d: %w", i+1, cerr)
		}
		if fixed != original {
			fixes++
		}
		out[i] = types.Segment{Start: seg.Start, End: seg.End, Text: fixed}
	}
	return out, fixes, nil
}

func (c *Corrector) degrade(segments []types.Segment, locale, reason string) Outcome {
	c.logger.Warn("grammar correction skipped",
		logging.String("locale", locale),
		logging.String("reason", reason),
		logging.String(logging.FieldImpact, "captions keep the transcribed text"),
	)
	return Outcome{Segments: segments, Locale: locale, Reason: reason}
}

// Passthrough is the outcome when correction is disabled by configuration.
func Passthrough(segments []types.Segment) Outcome {
	return Outcome{Segments: segments, Reason: "disabled"}
}
