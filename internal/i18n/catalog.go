// Package i18n resolves message catalog keys to localized text. The engine
// and handlers only ever produce keys; literal text lives in the locale files.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

const fallbackLanguage = "en"

// Catalog is a key to localized-string lookup for one language, with English
// fallback for keys missing from the selected locale.
type Catalog struct {
	language string
	messages map[string]string
	fallback map[string]string
}

// Load builds a Catalog for the given language code. Unknown languages fall
// back to English entirely.
func Load(language string) (*Catalog, error) {
	fallback, err := loadLocale(fallbackLanguage)
	if err != nil {
		return nil, err
	}

	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = fallbackLanguage
	}
	messages, err := loadLocale(language)
	if err != nil {
		messages = fallback
		language = fallbackLanguage
	}

	return &Catalog{language: language, messages: messages, fallback: fallback}, nil
}

// Language returns the effective language code.
func (c *Catalog) Language() string {
	return c.language
}

// Get resolves a message key. A key missing from both the selected locale and
// the fallback resolves to the key itself, so callers never lose information.
func (c *Catalog) Get(key string) string {
	if msg, ok := c.messages[key]; ok {
		return msg
	}
	if msg, ok := c.fallback[key]; ok {
		return msg
	}
	return key
}

func loadLocale(language string) (map[string]string, error) {
	raw, err := localeFS.ReadFile("locales/" + language + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("locale %q not available: %w", language, err)
	}
	messages := map[string]string{}
	if err := yaml.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("locale %q is malformed: %w", language, err)
	}
	return messages, nil
}
