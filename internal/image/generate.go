package image

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/dmorgan81/capyattitude/internal/prompt"
)

type Params struct {
	Prompt string       `json:"prompt"`
	Style  prompt.Style `json:"style"`
}

// Result is a single generated image. CreatedAt only feeds the download filename.
type Result struct {
	Data      []byte
	MIMEType  string
	CreatedAt time.Time
}

const dataURIPrefix = "data:image/png;base64,"

func (r Result) DataURI() string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(r.Data)
}

type Generator interface {
	Generate(context.Context, Params) (Result, error)
}
