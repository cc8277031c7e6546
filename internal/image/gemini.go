package image

import (
	"context"
	"strings"
	"time"

	"github.com/dmorgan81/capyattitude/internal/log"
	"github.com/dmorgan81/capyattitude/internal/prompt"
	"github.com/samber/do"
	"google.golang.org/genai"
)

// ContentGenerator is satisfied by *genai.Models.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// KeyFunc returns the API credential. It is called once per generation.
type KeyFunc func(context.Context) (string, error)

type ClientFactory func(ctx context.Context, key string) (ContentGenerator, error)

func NewGenAIClient(ctx context.Context, key string) (ContentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

var harmCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
	genai.HarmCategoryCivicIntegrity,
}

type GeminiGenerator struct {
	Key         KeyFunc
	NewClient   ClientFactory
	Model       string
	AspectRatio string
	Now         func() time.Time
}

func NewGeminiGenerator(i *do.Injector) (*GeminiGenerator, error) {
	return &GeminiGenerator{
		Key:         do.MustInvoke[KeyFunc](i),
		NewClient:   NewGenAIClient,
		Model:       do.MustInvokeNamed[string](i, "model"),
		AspectRatio: do.MustInvokeNamed[string](i, "aspect_ratio"),
		Now:         time.Now,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, params Params) (Result, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("gemini").With("model", g.Model, "style", params.Style)

	key, err := g.Key(ctx)
	if err != nil {
		return Result{}, &ConfigurationError{Err: err}
	}
	if strings.TrimSpace(key) == "" {
		return Result{}, &ConfigurationError{}
	}

	client, err := g.NewClient(ctx, key)
	if err != nil {
		return Result{}, &ServiceError{Err: err}
	}

	log.Info("generating image")
	contents := []*genai.Content{
		genai.NewContentFromText(prompt.Enforce(params.Prompt, params.Style), genai.RoleUser),
	}
	resp, err := client.GenerateContent(ctx, g.Model, contents, g.contentConfig())
	if err != nil {
		log.Error("gemini request failed", "error", err)
		return Result{}, &ServiceError{Err: err}
	}

	blob, idx, err := firstImage(resp)
	if err != nil {
		log.Warn("no image in response", "error", err)
		return Result{}, err
	}
	log.Info("received image", "part", idx, "mime", blob.MIMEType, "bytes", len(blob.Data))

	return Result{
		Data:      blob.Data,
		MIMEType:  blob.MIMEType,
		CreatedAt: g.now(),
	}, nil
}

func (g *GeminiGenerator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *GeminiGenerator) contentConfig() *genai.GenerateContentConfig {
	safety := make([]*genai.SafetySetting, 0, len(harmCategories))
	for _, c := range harmCategories {
		safety = append(safety, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}

	aspect := g.AspectRatio
	if aspect == "" {
		aspect = "1:1"
	}

	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: aspect},
		SafetySettings:     safety,
	}
}

// firstImage scans the first candidate's parts in order and returns the
// earliest part carrying inline data along with its index.
func firstImage(resp *genai.GenerateContentResponse) (*genai.Blob, int, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && blockedReason(resp.PromptFeedback.BlockReason) {
			return nil, -1, &ModerationBlockedError{
				Reason:  string(resp.PromptFeedback.BlockReason),
				Message: resp.PromptFeedback.BlockReasonMessage,
			}
		}
		return nil, -1, &EmptyResponseError{}
	}

	candidate := resp.Candidates[0]
	if candidate == nil {
		return nil, -1, &EmptyResponseError{}
	}
	if candidate.Content != nil {
		for i, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData, i, nil
			}
		}
	}

	if failedFinish(candidate.FinishReason) {
		return nil, -1, &ModerationBlockedError{
			Reason:  string(candidate.FinishReason),
			Message: candidate.FinishMessage,
		}
	}
	return nil, -1, &EmptyResponseError{}
}

func failedFinish(r genai.FinishReason) bool {
	return r != "" && r != genai.FinishReasonStop && r != genai.FinishReasonUnspecified
}

func blockedReason(r genai.BlockedReason) bool {
	return r != "" && r != genai.BlockedReasonUnspecified
}

var _ Generator = (*GeminiGenerator)(nil)
