package metrics

import (
	"context"
	"testing"

	"github.com/dmorgan81/capyattitude/internal/image"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	res image.Result
	err error
}

func (s stubGenerator) Generate(context.Context, image.Params) (image.Result, error) {
	return s.res, s.err
}

func TestGenerator(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	ok := Wrap(stubGenerator{res: image.Result{Data: []byte("png")}}, c)
	blocked := Wrap(stubGenerator{err: &image.ModerationBlockedError{Reason: "SAFETY"}}, c)

	res, err := ok.Generate(context.Background(), image.Params{Prompt: "p", Style: "Cartoon"})
	require.NoError(t, err)
	assert.Equal(t, "png", string(res.Data))

	_, err = ok.Generate(context.Background(), image.Params{Prompt: "p", Style: "Cartoon"})
	require.NoError(t, err)

	_, err = blocked.Generate(context.Background(), image.Params{Prompt: "p", Style: "Pixel Art"})
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.generations.WithLabelValues("Cartoon", image.KindOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generations.WithLabelValues("Pixel Art", image.KindBlocked)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.inFlight))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))
}
