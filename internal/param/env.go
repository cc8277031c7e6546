package param

import (
	"context"
	"os"
	"strings"

	"github.com/samber/lo"
)

// EnvFetcher resolves names against the process environment on every call.
// Fetch accepts a comma separated list of variable names and returns the
// first one that is set. FetchAll splits a single variable on newlines.
type EnvFetcher struct {
	Getenv func(string) string
}

func (f EnvFetcher) getenv(name string) string {
	if f.Getenv != nil {
		return f.Getenv(name)
	}
	return os.Getenv(name)
}

func (f EnvFetcher) Fetch(_ context.Context, names string) (string, error) {
	values := lo.Map(strings.Split(names, ","), func(name string, _ int) string {
		return strings.TrimSpace(f.getenv(strings.TrimSpace(name)))
	})
	v, _ := lo.Coalesce(values...)
	return v, nil
}

func (f EnvFetcher) FetchAll(_ context.Context, name string) ([]string, error) {
	lines := lo.Map(strings.Split(f.getenv(name), "\n"), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(lines), nil
}
