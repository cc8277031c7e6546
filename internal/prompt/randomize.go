package prompt

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/dmorgan81/capyattitude/internal/log"
	"github.com/samber/do"
)

type Randomizer struct {
	prompts []string
	styles  Styles

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomizer(i *do.Injector) (*Randomizer, error) {
	prompts := do.MustInvokeNamed[[]string](i, "prompts")
	styles := do.MustInvoke[Styles](i)
	rnd := rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
	return NewRandomizerWith(prompts, styles, rnd)
}

func NewRandomizerWith(prompts []string, styles Styles, rnd *rand.Rand) (*Randomizer, error) {
	if len(prompts) == 0 {
		return nil, errors.New("randomizer: no prompts")
	}
	if len(styles) == 0 {
		return nil, errors.New("randomizer: no styles")
	}
	return &Randomizer{prompts: prompts, styles: styles, rnd: rnd}, nil
}

func (r *Randomizer) Randomize(ctx context.Context) (string, Style) {
	r.mu.Lock()
	p := r.prompts[r.rnd.Intn(len(r.prompts))]
	s := r.styles[r.rnd.Intn(len(r.styles))]
	r.mu.Unlock()

	log.FromContextOrDiscard(ctx).WithGroup("randomizer").Info("picked random prompt", "prompt", p, "style", s)
	return p, s
}

func (r *Randomizer) Prompts() []string { return r.prompts }
