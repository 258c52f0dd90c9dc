// Package lang holds the user-facing strings sent by the bot, one embedded
// YAML catalog per locale.
package lang

import (
	"embed"
	"fmt"
	"maps"
	"path"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when the requested locale has no catalog.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var catalogs embed.FS

// Translator resolves a message key to localized text.
type Translator interface {
	Translate(key string) string
}

// Catalog is a Translator backed by a flat key/value table.
type Catalog struct {
	locale   string
	messages map[string]string
}

// Load returns the catalog for locale with overrides applied on top. Unknown
// locales fall back to DefaultLocale.
func Load(locale string, overrides map[string]string) (*Catalog, error) {
	if locale == "" {
		locale = DefaultLocale
	}

	messages, err := readCatalog(locale)
	if err != nil {
		if locale == DefaultLocale {
			return nil, err
		}
		locale = DefaultLocale
		if messages, err = readCatalog(locale); err != nil {
			return nil, err
		}
	}

	maps.Copy(messages, overrides)
	return &Catalog{locale: locale, messages: messages}, nil
}

// MustLoad is Load for the default catalog, which is always embedded.
func MustLoad() *Catalog {
	catalog, err := Load(DefaultLocale, nil)
	if err != nil {
		panic(err)
	}
	return catalog
}

func readCatalog(locale string) (map[string]string, error) {
	data, err := catalogs.ReadFile(path.Join("locales", locale+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}

	messages := make(map[string]string)
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return messages, nil
}

// Locale reports the locale actually loaded.
func (c *Catalog) Locale() string {
	return c.locale
}

// Translate returns the text for key, or the key itself when it is unknown.
func (c *Catalog) Translate(key string) string {
	if text, ok := c.messages[key]; ok {
		return text
	}
	return key
}
