package image

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/dmorgan81/capyattitude/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestGenerator(key KeyFunc, factory *mockFactory) *GeminiGenerator {
	return &GeminiGenerator{
		Key:         key,
		NewClient:   factory.New,
		Model:       "gemini-2.5-flash-image",
		AspectRatio: "1:1",
		Now:         func() time.Time { return fixedNow },
	}
}

func TestGeminiGenerator_MissingKey(t *testing.T) {
	ctx := context.Background()

	t.Run("blank key fails before any client is built", func(t *testing.T) {
		factory := &mockFactory{client: &mockClient{}}
		g := newTestGenerator(staticKey("  "), factory)

		_, err := g.Generate(ctx, Params{Prompt: "am Strand", Style: "Cartoon"})

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, err.Error(), "API key is missing")
		assert.Zero(t, factory.calls)
		assert.Zero(t, factory.client.calls)
	})

	t.Run("key lookup error is a configuration error", func(t *testing.T) {
		factory := &mockFactory{client: &mockClient{}}
		cause := errors.New("ParameterNotFound")
		g := newTestGenerator(func(context.Context) (string, error) { return "", cause }, factory)

		_, err := g.Generate(ctx, Params{Prompt: "am Strand", Style: "Cartoon"})

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.ErrorIs(t, err, cause)
		assert.Zero(t, factory.calls)
	})
}

func TestGeminiGenerator_Request(t *testing.T) {
	client := &mockClient{resp: response(candidate(imagePart("png")))}
	factory := &mockFactory{client: client}
	g := newTestGenerator(staticKey("secret"), factory)

	_, err := g.Generate(context.Background(), Params{Prompt: "als Pirat", Style: "Pixel Art"})
	require.NoError(t, err)

	assert.Equal(t, "secret", factory.key)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "gemini-2.5-flash-image", client.model)

	require.Len(t, client.contents, 1)
	require.Len(t, client.contents[0].Parts, 1)
	text := client.contents[0].Parts[0].Text
	assert.Contains(t, text, prompt.GestureClause)
	assert.Contains(t, text, "als Pirat")
	assert.Contains(t, text, "Style: Pixel Art.")

	require.NotNil(t, client.config)
	require.NotNil(t, client.config.ImageConfig)
	assert.Equal(t, "1:1", client.config.ImageConfig.AspectRatio)
	require.Len(t, client.config.SafetySettings, len(harmCategories))
	for i, s := range client.config.SafetySettings {
		assert.Equal(t, harmCategories[i], s.Category)
		assert.Equal(t, genai.HarmBlockThresholdBlockNone, s.Threshold)
	}
}

func TestGeminiGenerator_Response(t *testing.T) {
	ctx := context.Background()
	params := Params{Prompt: "im Weltraumanzug auf dem Mond", Style: "3D Render"}

	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr func(t *testing.T, err error)
	}{
		{
			name: "first image part wins over later ones",
			resp: response(candidate(&genai.Part{Text: "here you go"}, imagePart("A"), imagePart("B"))),
			want: "A",
		},
		{
			name: "parts with empty inline data are skipped",
			resp: response(candidate(&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png"}}, nil, imagePart("C"))),
			want: "C",
		},
		{
			name: "zero candidates",
			resp: response(),
			wantErr: func(t *testing.T, err error) {
				var empty *EmptyResponseError
				assert.ErrorAs(t, err, &empty)
				assert.Contains(t, err.Error(), "no image data")
			},
		},
		{
			name: "nil response",
			resp: nil,
			wantErr: func(t *testing.T, err error) {
				var empty *EmptyResponseError
				assert.ErrorAs(t, err, &empty)
			},
		},
		{
			name: "zero parts and no reason",
			resp: response(candidate()),
			wantErr: func(t *testing.T, err error) {
				var empty *EmptyResponseError
				assert.ErrorAs(t, err, &empty)
			},
		},
		{
			name: "nil content",
			resp: response(&genai.Candidate{}),
			wantErr: func(t *testing.T, err error) {
				var empty *EmptyResponseError
				assert.ErrorAs(t, err, &empty)
			},
		},
		{
			name: "text only with STOP is the generic error",
			resp: response(&genai.Candidate{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "I can't draw that"}}},
				FinishReason: genai.FinishReasonStop,
			}),
			wantErr: func(t *testing.T, err error) {
				var empty *EmptyResponseError
				assert.ErrorAs(t, err, &empty)
			},
		},
		{
			name: "non-success finish reason is surfaced",
			resp: response(&genai.Candidate{
				Content:       &genai.Content{Parts: []*genai.Part{{Text: "no"}}},
				FinishReason:  genai.FinishReasonSafety,
				FinishMessage: "blocked by policy",
			}),
			wantErr: func(t *testing.T, err error) {
				var blocked *ModerationBlockedError
				require.ErrorAs(t, err, &blocked)
				assert.Contains(t, err.Error(), string(genai.FinishReasonSafety))
				assert.Contains(t, err.Error(), "blocked by policy")
			},
		},
		{
			name: "prompt feedback block without candidates",
			resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			},
			wantErr: func(t *testing.T, err error) {
				var blocked *ModerationBlockedError
				require.ErrorAs(t, err, &blocked)
				assert.Contains(t, err.Error(), string(genai.BlockedReasonSafety))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(staticKey("secret"), &mockFactory{client: &mockClient{resp: tt.resp}})

			res, err := g.Generate(ctx, params)

			if tt.wantErr != nil {
				require.Error(t, err)
				tt.wantErr(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(res.Data))
			assert.Equal(t, fixedNow, res.CreatedAt)
			assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte(tt.want)), res.DataURI())
		})
	}
}

func TestGeminiGenerator_ServiceError(t *testing.T) {
	ctx := context.Background()

	t.Run("api error text is propagated verbatim", func(t *testing.T) {
		cause := errors.New("Error 403, Message: API key not valid. Please pass a valid API key., Status: PERMISSION_DENIED")
		g := newTestGenerator(staticKey("bad"), &mockFactory{client: &mockClient{err: cause}})

		_, err := g.Generate(ctx, Params{Prompt: "x", Style: "Cartoon"})

		var svc *ServiceError
		require.ErrorAs(t, err, &svc)
		assert.Equal(t, cause.Error(), err.Error())
		assert.Contains(t, err.Error(), "API key not valid")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, KindService, Kind(err))
	})

	t.Run("client construction failure", func(t *testing.T) {
		cause := errors.New("dial tcp: no route to host")
		g := newTestGenerator(staticKey("k"), &mockFactory{err: cause})

		_, err := g.Generate(ctx, Params{Prompt: "x", Style: "Cartoon"})

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, cause.Error(), err.Error())
	})
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindOK, Kind(nil))
	assert.Equal(t, KindConfiguration, Kind(&ConfigurationError{}))
	assert.Equal(t, KindEmpty, Kind(&EmptyResponseError{}))
	assert.Equal(t, KindBlocked, Kind(&ModerationBlockedError{Reason: "SAFETY"}))
	assert.Equal(t, KindService, Kind(&ServiceError{Err: errors.New("boom")}))
	assert.Equal(t, KindUnknown, Kind(errors.New("other")))
}
