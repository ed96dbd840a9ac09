// Package i18n loads YAML translations, negotiates the request language and
// formats numbers for the negotiated locale.
//
// Translation files map a language code to a tree of keys:
//
//	ru:
//	  account:
//	    length: "Имя аккаунта: %{min}–%{max} символа."
//
// Nested keys are addressed with dots ("account.length"); %{name}
// placeholders are filled from key/value argument pairs.
package i18n

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultLanguage = "ru"

// Translator is immutable after construction and safe for concurrent use.
type Translator struct {
	messages    map[string]map[string]string
	defaultLang string
	logger      *slog.Logger
}

type Option func(*Translator)

func WithDefaultLanguage(lang string) Option {
	return func(t *Translator) {
		if lang != "" {
			t.defaultLang = lang
		}
	}
}

// WithLogger enables debug logging of missing keys.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) { t.logger = l }
}

// Load reads every *.yaml / *.yml file under dir in fsys. Later files add
// to or override keys of earlier ones.
func Load(fsys fs.FS, dir string, opts ...Option) (*Translator, error) {
	t := &Translator{
		messages:    make(map[string]map[string]string),
		defaultLang: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(t)
	}

	files, err := fs.Glob(fsys, path.Join(dir, "*.y*ml"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoTranslations
	}
	slices.Sort(files)

	for _, name := range files {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", name, err)
		}
		if err := t.add(content); err != nil {
			return nil, fmt.Errorf("i18n: %s: %w", name, err)
		}
	}

	if _, ok := t.messages[t.defaultLang]; !ok {
		return nil, ErrUnknownDefault
	}
	return t, nil
}

func (t *Translator) add(content []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return errors.Join(ErrFailedToParseYAML, err)
	}
	for lang, tree := range doc {
		m, ok := tree.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: language %q holds %T", ErrInvalidStructure, lang, tree)
		}
		if t.messages[lang] == nil {
			t.messages[lang] = make(map[string]string)
		}
		flatten(t.messages[lang], "", m)
	}
	return nil
}

func flatten(dst map[string]string, prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(dst, key, val)
		case string:
			dst[key] = val
		default:
			dst[key] = fmt.Sprint(val)
		}
	}
}

// Languages lists the loaded languages with the default first.
func (t *Translator) Languages() []string {
	langs := make([]string, 0, len(t.messages))
	for lang := range t.messages {
		if lang != t.defaultLang {
			langs = append(langs, lang)
		}
	}
	slices.Sort(langs)
	return append([]string{t.defaultLang}, langs...)
}

func (t *Translator) DefaultLanguage() string { return t.defaultLang }

func (t *Translator) Has(lang, key string) bool {
	_, ok := t.messages[lang][key]
	return ok
}

var placeholder = regexp.MustCompile(`%\{([^}]+)\}`)

// T translates key for lang. Missing keys fall back to the default language
// and then to the key itself. args are name/value pairs for placeholders;
// an odd trailing arg is ignored.
func (t *Translator) T(lang, key string, args ...string) string {
	tmpl, ok := t.messages[lang][key]
	if !ok {
		tmpl, ok = t.messages[t.defaultLang][key]
		if t.logger != nil {
			t.logger.Debug("missing translation", slog.String("lang", lang), slog.String("key", key), slog.Bool("fallback_found", ok))
		}
	}
	if !ok {
		tmpl = key
	}
	if len(args) < 2 {
		return tmpl
	}

	params := make(map[string]string, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		params[args[i]] = args[i+1]
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := params[m[2:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// Tc translates using the language stored in ctx by Middleware.
func (t *Translator) Tc(ctx context.Context, key string, args ...string) string {
	return t.T(LanguageFromContext(ctx, t.defaultLang), key, args...)
}

// Args converts a map of values into the name/value pairs T expects,
// formatting numbers for lang.
func Args(lang string, values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]string, 0, len(values)*2)
	for _, k := range keys {
		out = append(out, k, formatArg(lang, values[k]))
	}
	return out
}

func formatArg(lang string, v any) string {
	switch n := v.(type) {
	case int:
		return FormatInt(lang, int64(n))
	case int64:
		return FormatInt(lang, n)
	case float64:
		return FormatDecimal(lang, n, 2)
	case string:
		return n
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
