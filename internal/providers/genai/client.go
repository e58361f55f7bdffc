package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"videoads/internal/infra"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	apiKeyHeader = "x-goog-api-key"
)

// ErrMissingAPIKey is returned by NewClient when no key is supplied.
var ErrMissingAPIKey = errors.New("genai: api key is required")

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a thin REST facade over the Gemini generative language API. A
// client is bound to one API key; callers build one per caller-supplied key.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// TextRequest describes one synchronous generateContent call.
type TextRequest struct {
	Model           string
	System          string
	Prompt          string
	Temperature     *float64
	MaxOutputTokens int
}

// VideoRequest describes one predictLongRunning submission to a Veo model.
type VideoRequest struct {
	Model            string
	Prompt           string
	NegativePrompt   string
	AspectRatio      string
	Resolution       string
	PersonGeneration string
}

// Operation is the long-running operation resource returned by Veo.
type Operation struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Error    *OperationError    `json:"error,omitempty"`
	Response *OperationResponse `json:"response,omitempty"`
}

// OperationError is the google.rpc.Status carried by a failed operation.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OperationResponse wraps the payload of a finished video operation.
type OperationResponse struct {
	GenerateVideoResponse *GenerateVideoResponse `json:"generateVideoResponse,omitempty"`
}

// GenerateVideoResponse lists generated samples and any safety filtering.
type GenerateVideoResponse struct {
	GeneratedSamples        []GeneratedSample `json:"generatedSamples"`
	RaiMediaFilteredCount   int               `json:"raiMediaFilteredCount,omitempty"`
	RaiMediaFilteredReasons []string          `json:"raiMediaFilteredReasons,omitempty"`
}

// GeneratedSample is one produced video.
type GeneratedSample struct {
	Video *VideoFile `json:"video,omitempty"`
}

// VideoFile points at a downloadable file resource.
type VideoFile struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
}

// FileStream is an open download. Body must be closed by the caller.
type FileStream struct {
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiGenerateContentRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type veoInstance struct {
	Prompt string `json:"prompt"`
}

type veoParameters struct {
	NegativePrompt   string `json:"negativePrompt,omitempty"`
	AspectRatio      string `json:"aspectRatio,omitempty"`
	Resolution       string `json:"resolution,omitempty"`
	PersonGeneration string `json:"personGeneration,omitempty"`
}

type veoPredictRequest struct {
	Instances  []veoInstance  `json:"instances"`
	Parameters *veoParameters `json:"parameters,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured default text model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateText runs one generateContent call and returns the concatenated text
// of the first candidate.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	model := firstNonEmpty(req.Model, c.model)
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
	}
	if system := strings.TrimSpace(req.System); system != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	if req.Temperature != nil || req.MaxOutputTokens > 0 {
		payload.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		}
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(model))
	if err := c.invokeGemini(ctx, http.MethodPost, path, payload, &response); err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 {
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("genai: prompt blocked: %s", response.PromptFeedback.BlockReason)
		}
		return "", errors.New("genai: no candidates returned")
	}

	var b strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}

	c.logger.Debug().
		Str("model", model).
		Int("chars", b.Len()).
		Msg("genai: text generated")

	return b.String(), nil
}

// PredictLongRunning submits a video generation job and returns the name of
// the operation tracking it.
func (c *Client) PredictLongRunning(ctx context.Context, req VideoRequest) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("genai: video model is required")
	}
	payload := veoPredictRequest{
		Instances: []veoInstance{{Prompt: req.Prompt}},
		Parameters: &veoParameters{
			NegativePrompt:   req.NegativePrompt,
			AspectRatio:      req.AspectRatio,
			Resolution:       req.Resolution,
			PersonGeneration: req.PersonGeneration,
		},
	}

	var op Operation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(req.Model))
	if err := c.invokeGemini(ctx, http.MethodPost, path, payload, &op); err != nil {
		return "", err
	}
	if op.Name == "" {
		return "", errors.New("genai: operation name missing from response")
	}

	c.logger.Debug().
		Str("model", req.Model).
		Str("operation", op.Name).
		Msg("genai: video job submitted")

	return op.Name, nil
}

// GetOperation fetches the current state of a long-running operation.
func (c *Client) GetOperation(ctx context.Context, name string) (*Operation, error) {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return nil, errors.New("genai: operation name is required")
	}
	var op Operation
	if err := c.invokeGemini(ctx, http.MethodGet, "/"+name, nil, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		op.Name = name
	}
	return &op, nil
}

// OpenFile starts a media download of the named file. Non-2xx upstream
// responses are returned as a stream too so callers can relay the status.
func (c *Client) OpenFile(ctx context.Context, name string) (*FileStream, error) {
	name = strings.TrimPrefix(strings.Trim(strings.TrimSpace(name), "/"), "files/")
	name = strings.TrimSuffix(name, ":download")
	if name == "" {
		return nil, errors.New("genai: file name is required")
	}

	endpoint := fmt.Sprintf("%s/files/%s:download?alt=media", c.baseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &FileStream{StatusCode: resp.StatusCode, ContentType: contentType, Body: resp.Body}, nil
}

func (c *Client) invokeGemini(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := c.baseURL + path

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{Code: resp.StatusCode}
	var payload geminiErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		apiErr.Status = payload.Error.Status
		if payload.Error.Code != 0 {
			apiErr.Code = payload.Error.Code
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Status == "" {
		apiErr.Status = statusForHTTP(apiErr.Code)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
