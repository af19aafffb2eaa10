package llm

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

type ModelProvider string
type PromptKey string

const (
	// DefaultProvider is the fallback when no provider-specific prompt exists.
	DefaultProvider ModelProvider = "default"

	// VisionPrompt is the system prompt for the damage description call.
	VisionPrompt PromptKey = "vision"
	// VisionUserPrompt frames the seller-provided listing text.
	VisionUserPrompt PromptKey = "vision_user"
	// TranslatePrompt instructs the model to translate generated HTML.
	TranslatePrompt PromptKey = "translate"
)

// PromptManager renders the embedded prompt templates. Template files follow
// the key_provider.prompt naming convention.
type PromptManager struct {
	templates map[string]*template.Template
}

func NewPromptManager() (*PromptManager, error) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("read embedded prompts: %w", err)
	}

	pm := &PromptManager{templates: make(map[string]*template.Template, len(entries))}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		sep := strings.LastIndex(stem, "_")
		if sep <= 0 || sep == len(stem)-1 {
			return nil, fmt.Errorf("prompt file %q does not follow key_provider.prompt", name)
		}

		raw, err := promptFiles.ReadFile("prompts/" + name)
		if err != nil {
			return nil, fmt.Errorf("read prompt %q: %w", name, err)
		}
		tmpl, err := template.New(stem).Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse prompt %q: %w", name, err)
		}
		pm.templates[stem] = tmpl
	}
	return pm, nil
}

// Render executes the template for key and provider, falling back to the
// default provider when no provider-specific template exists.
func (pm *PromptManager) Render(key PromptKey, provider ModelProvider, data any) (string, error) {
	tmpl, ok := pm.templates[string(key)+"_"+string(provider)]
	if !ok {
		tmpl, ok = pm.templates[string(key)+"_"+string(DefaultProvider)]
	}
	if !ok {
		return "", fmt.Errorf("no prompt registered for key %q and provider %q", key, provider)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
