package checkout

import (
	"embed"
	"log/slog"

	"github.com/ludens-school/paywidget/pkg/i18n"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// LoadTranslations reads the embedded ru and en translations.
func LoadTranslations(defaultLang string, log *slog.Logger) (*i18n.Translator, error) {
	return i18n.Load(localeFS, "locales", i18n.WithDefaultLanguage(defaultLang), i18n.WithLogger(log))
}
