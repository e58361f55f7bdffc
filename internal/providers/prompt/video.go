package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingFields is returned when a completion object has neither a title
// nor a prompt.
var ErrMissingFields = errors.New("completion object has neither title nor prompt")

// SystemPrompt instructs the text model to answer with a single video brief.
const SystemPrompt = `You are a helpful assistant. Given a creative ad idea and an inspiration prompt,
return a structured JSON object with:
- title: title of the video
- prompt: visual and stylistic prompt used for video generation

Respond ONLY in this format:
{
  "title": "...",
  "prompt": "..."
}`

// VideoDetails is the structured brief synthesized from an ad idea.
type VideoDetails struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// UserMessage renders the completion input for an ad idea and its style prompt.
func UserMessage(adIdea, inspiration string) string {
	return fmt.Sprintf("Ad Idea: %s\n\nInspiration Prompt:\n%s",
		strings.TrimSpace(adIdea), strings.TrimSpace(inspiration))
}

// ParseVideoDetails extracts the brief from raw completion text, tolerating
// commentary and markdown fences around the object.
func ParseVideoDetails(raw string) (VideoDetails, error) {
	payload, err := parseModelPayload[map[string]any](raw)
	if err != nil {
		return VideoDetails{}, err
	}
	title, hasTitle := payload["title"]
	body, hasPrompt := payload["prompt"]
	if !hasTitle && !hasPrompt {
		return VideoDetails{}, ErrMissingFields
	}
	return VideoDetails{
		Title:  coalesce(stringify(title)),
		Prompt: coalesce(stringify(body)),
	}, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	return fmt.Sprint(v)
}
