package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// responseEnvelope covers the two response shapes the /v1/responses endpoint
// is known to produce: the Chat-Completions style with choices, and the
// older output array with typed message items.
type responseEnvelope struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// ParseOutput extracts the generated text from a raw API response. It tries
// the choices shape first and falls back to the legacy output array.
func ParseOutput(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty generation response")
	}

	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	if len(env.Choices) > 0 {
		if content := env.Choices[0].Message.Content; content != "" {
			return strings.TrimSpace(content), nil
		}
	}

	for _, item := range env.Output {
		if item.Type != "message" {
			continue
		}
		if len(item.Content) > 0 && item.Content[0].Text != "" {
			return strings.TrimSpace(item.Content[0].Text), nil
		}
	}

	return "", fmt.Errorf("generation response contained no output text")
}
