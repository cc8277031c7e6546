package image

import (
	"context"

	"google.golang.org/genai"
)

type mockClient struct {
	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig

	resp *genai.GenerateContentResponse
	err  error
}

func (m *mockClient) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	m.model = model
	m.contents = contents
	m.config = config
	return m.resp, m.err
}

type mockFactory struct {
	calls  int
	key    string
	client *mockClient
	err    error
}

func (f *mockFactory) New(_ context.Context, key string) (ContentGenerator, error) {
	f.calls++
	f.key = key
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func staticKey(key string) KeyFunc {
	return func(context.Context) (string, error) { return key, nil }
}

func imagePart(data string) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte(data)}}
}

func response(candidates ...*genai.Candidate) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: candidates}
}

func candidate(parts ...*genai.Part) *genai.Candidate {
	return &genai.Candidate{Content: &genai.Content{Parts: parts}}
}
