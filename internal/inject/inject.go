package inject

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/capyattitude/internal/config"
	"github.com/dmorgan81/capyattitude/internal/handler"
	"github.com/dmorgan81/capyattitude/internal/image"
	"github.com/dmorgan81/capyattitude/internal/lambdaurl"
	"github.com/dmorgan81/capyattitude/internal/log"
	"github.com/dmorgan81/capyattitude/internal/metrics"
	"github.com/dmorgan81/capyattitude/internal/page"
	"github.com/dmorgan81/capyattitude/internal/param"
	"github.com/dmorgan81/capyattitude/internal/prompt"
	"github.com/dmorgan81/capyattitude/internal/studio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do"
)

// KeyEnvVars are checked in order when no key parameter is configured.
const KeyEnvVars = "API_KEY,GEMINI_API_KEY,VITE_API_KEY"

func Setup(ctx context.Context, cfg config.Config) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideValue[config.Config](injector, cfg)

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*param.ParameterStoreFetcher](injector, param.NewParameterStoreFetcher)
	do.ProvideValue[param.EnvFetcher](injector, param.EnvFetcher{})

	// The key is resolved on every generation so rotating it needs no restart.
	do.Provide[image.KeyFunc](injector, func(i *do.Injector) (image.KeyFunc, error) {
		return func(ctx context.Context) (string, error) {
			fetcher, name, err := keySource(i, cfg)
			if err != nil {
				return "", err
			}
			return fetcher.Fetch(ctx, name)
		}, nil
	})
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		if cfg.PromptsParam == "" {
			return cfg.Prompts, nil
		}
		return do.MustInvoke[*param.ParameterStoreFetcher](i).FetchAll(ctx, cfg.PromptsParam)
	})
	do.ProvideValue[prompt.Styles](injector, prompt.NewStyles(cfg.Styles))
	do.ProvideNamedValue[string](injector, "model", cfg.Model)
	do.ProvideNamedValue[string](injector, "aspect_ratio", cfg.AspectRatio)
	do.ProvideNamedValue[string](injector, "default_style", cfg.DefaultStyle)
	do.ProvideNamedValue[string](injector, "public_url", cfg.PublicURL)

	do.Provide[*prometheus.Registry](injector, func(i *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		return reg, nil
	})
	do.Provide[*metrics.Collector](injector, func(i *do.Injector) (*metrics.Collector, error) {
		return metrics.NewCollector(do.MustInvoke[*prometheus.Registry](i)), nil
	})

	do.Provide[*prompt.Randomizer](injector, prompt.NewRandomizer)
	do.Provide[*image.GeminiGenerator](injector, image.NewGeminiGenerator)
	do.Provide[image.Generator](injector, metrics.NewGenerator)
	do.Provide[*studio.Studio](injector, studio.NewStudio)
	do.Provide[*page.Templator](injector, page.NewTemplator)
	do.Provide[*handler.Handler](injector, handler.NewHandler)
	do.Provide[*lambdaurl.Adapter](injector, func(i *do.Injector) (*lambdaurl.Adapter, error) {
		return &lambdaurl.Adapter{Handler: do.MustInvoke[*handler.Handler](i)}, nil
	})

	return injector
}

func keySource(i *do.Injector, cfg config.Config) (param.Fetcher, string, error) {
	if cfg.KeyParam == "" {
		return do.MustInvoke[param.EnvFetcher](i), KeyEnvVars, nil
	}
	fetcher, err := do.Invoke[*param.ParameterStoreFetcher](i)
	return fetcher, cfg.KeyParam, err
}
