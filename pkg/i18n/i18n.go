package i18n

import (
	"embed"
	"encoding/json"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	French  = "fr"
	English = "en"
)

// DefaultLocale is the storefront's primary language.
const DefaultLocale = French

type Translator struct {
	bundle  *goi18n.Bundle
	matcher language.Matcher
}

func New() (*Translator, error) {
	bundle := goi18n.NewBundle(language.French)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, file := range []string{"locales/active.fr.json", "locales/active.en.json"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, err
		}
	}

	return &Translator{
		bundle:  bundle,
		matcher: language.NewMatcher([]language.Tag{language.French, language.English}),
	}, nil
}

// MustNew panics if the embedded locale files are broken.
func MustNew() *Translator {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve picks "fr" or "en" from an explicit locale, then the Accept-Language header.
func (t *Translator) Resolve(explicit, acceptLanguage string) string {
	if l := Normalize(explicit); l != "" {
		return l
	}
	if acceptLanguage == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	tag, _, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	base, _ := tag.Base()
	return base.String()
}

// Normalize returns "fr" or "en" for a recognised locale string, "" otherwise.
func Normalize(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "fr"):
		return French
	case strings.HasPrefix(l, "en"):
		return English
	}
	return ""
}

// T localizes messageID. Unknown IDs come back unchanged.
func (t *Translator) T(locale, messageID string, data map[string]any) string {
	loc := goi18n.NewLocalizer(t.bundle, locale, DefaultLocale)
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
