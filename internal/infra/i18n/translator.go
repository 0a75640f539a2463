package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// SupportedLangs lists the language packs shipped with the service.
var SupportedLangs = []string{"en", "ru"}

type Translator struct {
	translations map[string]string
}

// NewTranslator loads a single language pack from the provided fs.FS.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := filepath.Join("locales", fmt.Sprintf("%s.yaml", langCode))

	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}

	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}

	return &Translator{translations: translations}, nil
}

// T translates a key, formatting args into the stored template.
// Unknown keys fall through as the key itself.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Bundle holds one translator per supported language with an English fallback.
type Bundle struct {
	packs map[string]*Translator
}

func NewBundle(fsys fs.FS) (*Bundle, error) {
	packs := make(map[string]*Translator, len(SupportedLangs))
	for _, lang := range SupportedLangs {
		tr, err := NewTranslator(fsys, lang)
		if err != nil {
			return nil, err
		}
		packs[lang] = tr
	}
	return &Bundle{packs: packs}, nil
}

// For returns the translator for lang, falling back to English.
func (b *Bundle) For(lang string) *Translator {
	if tr, ok := b.packs[lang]; ok {
		return tr
	}
	return b.packs["en"]
}

// Supported reports whether a language pack exists for lang.
func (b *Bundle) Supported(lang string) bool {
	_, ok := b.packs[lang]
	return ok
}
