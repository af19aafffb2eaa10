package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultLanguageNames covers the markets the service is asked for in
// practice. Unknown codes fall back to the code itself, which the
// translation model copes with.
var defaultLanguageNames = map[string]string{
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"bg": "Bulgarian",
	"cs": "Czech",
	"sk": "Slovak",
	"hu": "Hungarian",
	"el": "Greek",
	"sv": "Swedish",
	"da": "Danish",
	"fi": "Finnish",
	"no": "Norwegian",
	"et": "Estonian",
	"lv": "Latvian",
	"lt": "Lithuanian",
	"uk": "Ukrainian",
	"ru": "Russian",
	"ka": "Georgian",
	"tr": "Turkish",
	"ar": "Arabic",
}

// LanguageTable resolves language codes to the display names used when
// prompting the translation model.
type LanguageTable struct {
	names map[string]string
}

// languagesFile is the structure of an optional languages.yml override.
type languagesFile struct {
	Languages map[string]string `yaml:"languages"`
}

// LoadLanguageTable builds the language table from the built-in defaults,
// merged with an optional YAML override file. An empty path returns the
// defaults unchanged.
func LoadLanguageTable(path string) (*LanguageTable, error) {
	names := make(map[string]string, len(defaultLanguageNames))
	for code, name := range defaultLanguageNames {
		names[code] = name
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read languages file %s: %w", path, err)
		}
		var overrides languagesFile
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse languages file %s: %w", path, err)
		}
		for code, name := range overrides.Languages {
			names[code] = name
		}
	}

	return &LanguageTable{names: names}, nil
}

// DisplayName returns the human-readable name for a language code, or the
// code itself when no mapping exists.
func (t *LanguageTable) DisplayName(code string) string {
	if name, ok := t.names[code]; ok {
		return name
	}
	return code
}
