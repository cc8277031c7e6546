package page

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"strings"
	"sync"

	"github.com/dmorgan81/capyattitude/internal/log"
	"github.com/dmorgan81/capyattitude/internal/share"
	"github.com/samber/do"
)

//go:embed assets/index.html
var indexTmpl string

type Params struct {
	Prompt         string
	Style          string
	Styles         []string
	Loading        bool
	Error          string
	CredentialHint bool
	Image          template.URL
	Filename       string
	Links          []share.Link
	PageURL        string
}

// CanGenerate mirrors the disabled state of the generate button.
func (p Params) CanGenerate() bool {
	return !p.Loading && strings.TrimSpace(p.Prompt) != ""
}

type Templator struct {
	tmpl *template.Template
	once sync.Once
}

func NewTemplator(*do.Injector) (*Templator, error) {
	return &Templator{}, nil
}

func (g *Templator) Template(ctx context.Context, params Params) ([]byte, error) {
	g.once.Do(func() {
		g.tmpl = template.Must(template.New("index").Parse(indexTmpl))
	})

	log := log.FromContextOrDiscard(ctx).WithGroup("templator")
	log.Debug("rendering page", "loading", params.Loading, "has_image", params.Image != "")

	var data bytes.Buffer
	if err := g.tmpl.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
