package llm

import (
	"context"
	"log/slog"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/core"
)

// reasoningSpec asks the vision model for a bounded reasoning effort.
type reasoningSpec struct {
	Effort string `json:"effort"`
}

// inputMessage is one conversation turn. Content is either a plain string or
// a list of contentPart values for multimodal turns.
type inputMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type responsesRequest struct {
	Model           string         `json:"model"`
	Reasoning       *reasoningSpec `json:"reasoning,omitempty"`
	Input           []inputMessage `json:"input"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
	Temperature     *float64       `json:"temperature,omitempty"`
}

const translateMaxOutputTokens = 4096

// generator implements core.Generator on top of the responses client. One
// Describe call covers all images of a lot; translations are one call per
// target language.
type generator struct {
	client         *Client
	prompts        *PromptManager
	languages      *config.LanguageTable
	visionModel    string
	translateModel string
	logger         *slog.Logger
}

// NewGenerator creates the production description generator.
func NewGenerator(cfg *config.Config, client *Client, prompts *PromptManager, languages *config.LanguageTable, logger *slog.Logger) core.Generator {
	if client == nil {
		panic("llm client cannot be nil")
	}
	if prompts == nil {
		panic("prompt manager cannot be nil")
	}
	if languages == nil {
		panic("language table cannot be nil")
	}
	return &generator{
		client:         client,
		prompts:        prompts,
		languages:      languages,
		visionModel:    cfg.VisionModel,
		translateModel: cfg.TranslateModel,
		logger:         logger,
	}
}

func (g *generator) Describe(ctx context.Context, lot core.Lot) (string, error) {
	system, err := g.prompts.Render(VisionPrompt, DefaultProvider, nil)
	if err != nil {
		return "", core.PermanentFailure("vision prompt unavailable", err)
	}
	userText, err := g.prompts.Render(VisionUserPrompt, DefaultProvider, struct{ AdditionalInfo string }{lot.AdditionalInfo})
	if err != nil {
		return "", core.PermanentFailure("vision user prompt unavailable", err)
	}

	parts := make([]contentPart, 0, len(lot.Images)+1)
	parts = append(parts, contentPart{Type: "input_text", Text: userText})
	for _, img := range lot.Images {
		parts = append(parts, contentPart{Type: "input_image", ImageURL: img.URL, Detail: "low"})
	}

	body := responsesRequest{
		Model:     g.visionModel,
		Reasoning: &reasoningSpec{Effort: "medium"},
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: parts},
		},
	}

	g.logger.Debug("requesting vision description", "lot_id", lot.LotID, "images", len(lot.Images))
	raw, err := g.client.Responses(ctx, body)
	if err != nil {
		return "", err
	}

	text, err := ParseOutput(raw)
	if err != nil {
		return "", core.TransientFailure("unusable vision response", err)
	}
	return text, nil
}

func (g *generator) Translate(ctx context.Context, text, language string) (string, error) {
	system, err := g.prompts.Render(TranslatePrompt, DefaultProvider, struct{ Language string }{g.languages.DisplayName(language)})
	if err != nil {
		return "", core.PermanentFailure("translate prompt unavailable", err)
	}

	temperature := 0.0
	body := responsesRequest{
		Model: g.translateModel,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		MaxOutputTokens: translateMaxOutputTokens,
		Temperature:     &temperature,
	}

	raw, err := g.client.Responses(ctx, body)
	if err != nil {
		return "", err
	}

	translated, err := ParseOutput(raw)
	if err != nil {
		return "", core.TransientFailure("unusable translation response", err)
	}
	return translated, nil
}
