// Package studio owns the single UI state of the service and drives each
// generation from trigger to result.
package studio

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmorgan81/capyattitude/internal/image"
	"github.com/dmorgan81/capyattitude/internal/log"
	"github.com/dmorgan81/capyattitude/internal/prompt"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var (
	ErrEmptyPrompt  = errors.New("prompt is empty")
	ErrBusy         = errors.New("a generation is already running")
	ErrUnknownStyle = errors.New("unknown style")
)

type State struct {
	Prompt     string
	Style      prompt.Style
	Result     *image.Result
	Loading    bool
	Error      string
	Generation uint64
}

var authMarkers = []string{"403", "401", "api key", "api_key", "permission_denied", "unauthenticated"}

// CredentialHint reports whether the error looks like a credential problem.
func (s State) CredentialHint() bool {
	msg := strings.ToLower(s.Error)
	return msg != "" && lo.SomeBy(authMarkers, func(m string) bool { return strings.Contains(msg, m) })
}

type Studio struct {
	generator  image.Generator
	randomizer *prompt.Randomizer
	styles     prompt.Styles

	mu    sync.Mutex
	state State
}

func New(generator image.Generator, randomizer *prompt.Randomizer, styles prompt.Styles, defaultStyle prompt.Style) *Studio {
	return &Studio{
		generator:  generator,
		randomizer: randomizer,
		styles:     styles,
		state:      State{Style: defaultStyle},
	}
}

func NewStudio(i *do.Injector) (*Studio, error) {
	return New(
		do.MustInvoke[image.Generator](i),
		do.MustInvoke[*prompt.Randomizer](i),
		do.MustInvoke[prompt.Styles](i),
		prompt.Style(do.MustInvokeNamed[string](i, "default_style")),
	), nil
}

func (s *Studio) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Studio) Styles() prompt.Styles { return s.styles }

func (s *Studio) SetPrompt(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Loading {
		return ErrBusy
	}
	s.state.Prompt = p
	return nil
}

func (s *Studio) SetStyle(style prompt.Style) error {
	if !s.styles.Contains(style) {
		return ErrUnknownStyle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Loading {
		return ErrBusy
	}
	s.state.Style = style
	return nil
}

// Generate runs one generation with the current prompt and style. A blank
// prompt is rejected without touching the state.
func (s *Studio) Generate(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if strings.TrimSpace(s.state.Prompt) == "" {
		s.mu.Unlock()
		return ErrEmptyPrompt
	}
	params := image.Params{Prompt: s.state.Prompt, Style: s.state.Style}
	gen := s.begin()
	s.mu.Unlock()

	return s.run(ctx, gen, params)
}

// Submit applies a prompt and optional style from one form post and starts
// the generation under a single lock, so concurrent posts cannot mix their
// values. An empty style keeps the current one. A blank prompt is stored but
// not generated.
func (s *Studio) Submit(ctx context.Context, p string, style prompt.Style) error {
	if style != "" && !s.styles.Contains(style) {
		return ErrUnknownStyle
	}

	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state.Prompt = p
	if style != "" {
		s.state.Style = style
	}
	if strings.TrimSpace(p) == "" {
		s.mu.Unlock()
		return ErrEmptyPrompt
	}
	params := image.Params{Prompt: s.state.Prompt, Style: s.state.Style}
	gen := s.begin()
	s.mu.Unlock()

	return s.run(ctx, gen, params)
}

// Surprise writes a random curated prompt and style into the state and
// generates with exactly those values.
func (s *Studio) Surprise(ctx context.Context) error {
	p, style := s.randomizer.Randomize(ctx)

	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state.Prompt = p
	s.state.Style = style
	gen := s.begin()
	s.mu.Unlock()

	return s.run(ctx, gen, image.Params{Prompt: p, Style: style})
}

// begin must be called with mu held.
func (s *Studio) begin() uint64 {
	s.state.Generation++
	s.state.Result = nil
	s.state.Error = ""
	s.state.Loading = true
	return s.state.Generation
}

func (s *Studio) run(ctx context.Context, gen uint64, params image.Params) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("studio").With("generation", gen, "style", params.Style)
	log.Info("generation started")

	res, err := s.generator.Generate(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Only the newest trigger may write its outcome. Single-flight keeps this
	// from happening today; it guards anything that starts a generation
	// without waiting for Loading to clear.
	if gen != s.state.Generation {
		log.Warn("discarding stale generation", "current", s.state.Generation)
		return err
	}
	s.state.Loading = false
	if err != nil {
		s.state.Error = lo.Ternary(err.Error() != "", err.Error(), "unknown error")
		log.Error("generation failed", "error", err, "kind", image.Kind(err))
		return err
	}
	s.state.Result = &res
	log.Info("generation finished", "bytes", len(res.Data))
	return nil
}
