package i18n

import "embed"

// localeFS — JSON-каталоги переводов, встроенные в бинарник.
//
//go:embed locales/*.json
var localeFS embed.FS
