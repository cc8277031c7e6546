package share

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	Caption        = "Schau dir mein freches Capybara an! 🖕🦫"
	filenamePrefix = "rude-capybara-"
)

// Filename is the suggested download name for an image created at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("%s%d.png", filenamePrefix, t.UnixMilli())
}

type Link struct {
	Name string
	URL  string
}

type target struct {
	name     string
	template string
}

// Placeholders: {text} is the caption, {url} the page URL, both query-escaped.
var targets = []target{
	{"X", "https://twitter.com/intent/tweet?text={text}&url={url}"},
	{"Facebook", "https://www.facebook.com/sharer/sharer.php?u={url}&quote={text}"},
	{"WhatsApp", "https://wa.me/?text={text}%20{url}"},
	{"Telegram", "https://t.me/share/url?url={url}&text={text}"},
	{"Reddit", "https://www.reddit.com/submit?url={url}&title={text}"},
}

func Links(pageURL string) []Link {
	r := strings.NewReplacer(
		"{text}", url.QueryEscape(Caption),
		"{url}", url.QueryEscape(pageURL),
	)
	return lo.Map(targets, func(t target, _ int) Link {
		return Link{Name: t.name, URL: r.Replace(t.template)}
	})
}
