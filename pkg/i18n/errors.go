package i18n

import "errors"

var (
	ErrNoTranslations    = errors.New("i18n: no translation files found")
	ErrFailedToParseYAML = errors.New("i18n: failed to parse YAML translations")
	ErrInvalidStructure  = errors.New("i18n: translation file must map language codes to keys")
	ErrUnknownDefault    = errors.New("i18n: default language has no translations")
)
