package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"videoads/internal/infra"
	"videoads/internal/providers/genai"
	"videoads/internal/providers/prompt"
)

const (
	defaultNegativePrompt   = "low quality, cartoon"
	defaultPersonGeneration = "allow_all"
)

// GeminiOptions configures the Gemini-backed provider.
type GeminiOptions struct {
	BaseURL     string
	TextModel   string
	VideoModel  string
	VerifyModel string
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// GeminiFactory creates Gemini providers, verifies keys and opens media
// downloads, each bound to the key of the call.
type GeminiFactory struct {
	opts GeminiOptions
}

func NewGeminiFactory(opts GeminiOptions) *GeminiFactory {
	if opts.VideoModel == "" {
		opts.VideoModel = "veo-3.0-generate-preview"
	}
	if opts.VerifyModel == "" {
		opts.VerifyModel = "gemini-2.0-flash-lite"
	}
	return &GeminiFactory{opts: opts}
}

func (f *GeminiFactory) client(apiKey string) (*genai.Client, error) {
	return genai.NewClient(genai.Options{
		APIKey:     apiKey,
		BaseURL:    f.opts.BaseURL,
		Model:      f.opts.TextModel,
		HTTPClient: f.opts.HTTPClient,
		Logger:     f.opts.Logger,
	})
}

// ForKey returns a provider that authenticates with apiKey.
func (f *GeminiFactory) ForKey(apiKey string) (Provider, error) {
	client, err := f.client(apiKey)
	if err != nil {
		return nil, err
	}
	return NewGemini(client, f.opts.VideoModel), nil
}

// VerifyKey performs one minimal completion. The key is valid iff the call
// returns non-empty text without error.
func (f *GeminiFactory) VerifyKey(ctx context.Context, apiKey string) (bool, error) {
	client, err := f.client(apiKey)
	if err != nil {
		return false, nil
	}
	text, err := client.GenerateText(ctx, genai.TextRequest{Model: f.opts.VerifyModel, Prompt: "hi", MaxOutputTokens: 8})
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(text) != "", nil
}

// OpenFile opens a download of a generated file using apiKey.
func (f *GeminiFactory) OpenFile(ctx context.Context, apiKey, name string) (*genai.FileStream, error) {
	client, err := f.client(apiKey)
	if err != nil {
		return nil, err
	}
	return client.OpenFile(ctx, name)
}

// Gemini implements Provider with Gemini text models and Veo.
type Gemini struct {
	client     *genai.Client
	videoModel string
}

func NewGemini(client *genai.Client, videoModel string) *Gemini {
	return &Gemini{client: client, videoModel: videoModel}
}

func (g *Gemini) CompleteStructured(ctx context.Context, systemPrompt, userMessage string) (prompt.VideoDetails, error) {
	if err := ctx.Err(); err != nil {
		return prompt.VideoDetails{}, err
	}
	text, err := g.client.GenerateText(ctx, genai.TextRequest{System: systemPrompt, Prompt: userMessage})
	if err != nil {
		return prompt.VideoDetails{}, err
	}
	if strings.TrimSpace(text) == "" {
		return prompt.VideoDetails{}, fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}
	details, err := prompt.ParseVideoDetails(text)
	if err != nil {
		return prompt.VideoDetails{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return details, nil
}

func (g *Gemini) SubmitJob(ctx context.Context, req SubmitRequest) (JobHandle, error) {
	if err := ctx.Err(); err != nil {
		return JobHandle{}, err
	}
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = g.videoModel
	}
	name, err := g.client.PredictLongRunning(ctx, genai.VideoRequest{
		Model:            model,
		Prompt:           req.Prompt,
		NegativePrompt:   defaultNegativePrompt,
		AspectRatio:      req.AspectRatio,
		Resolution:       req.Resolution,
		PersonGeneration: defaultPersonGeneration,
	})
	if err != nil {
		return JobHandle{}, &SubmissionError{Raw: err.Error(), Err: err}
	}
	return JobHandle{Name: name}, nil
}

func (g *Gemini) PollJob(ctx context.Context, handle JobHandle) (PollResult, error) {
	if !handle.Valid() {
		return PollResult{}, &PollError{Handle: handle, Raw: "empty job handle"}
	}
	op, err := g.client.GetOperation(ctx, handle.Name)
	if err != nil {
		return PollResult{}, &PollError{Handle: handle, Raw: err.Error(), Err: err}
	}
	if !op.Done {
		return PollResult{}, nil
	}
	if op.Error != nil {
		apiErr := op.Error.AsAPIError()
		return PollResult{}, &PollError{Handle: handle, Raw: apiErr.Error(), Err: apiErr}
	}
	return PollResult{Done: true, Result: resultFromOperation(op)}, nil
}

func (g *Gemini) ExtractMediaURL(result *JobResult) (string, error) {
	return ExtractFirstMedia(result)
}

func resultFromOperation(op *genai.Operation) *JobResult {
	result := &JobResult{}
	if op.Response == nil || op.Response.GenerateVideoResponse == nil {
		return result
	}
	resp := op.Response.GenerateVideoResponse
	for _, sample := range resp.GeneratedSamples {
		if sample.Video == nil || strings.TrimSpace(sample.Video.URI) == "" {
			continue
		}
		result.Media = append(result.Media, MediaEntry{URI: sample.Video.URI, MimeType: sample.Video.MimeType})
	}
	result.FilteredReasons = append(result.FilteredReasons, resp.RaiMediaFilteredReasons...)
	return result
}

var (
	_ Provider = (*Gemini)(nil)
	_ Factory  = (*GeminiFactory)(nil)
)
