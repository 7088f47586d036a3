// Пакет i18n — переводы строк интерфейса Safety Portal.
// Поддерживаемые языки: English (en), Русский (ru).
// Язык запроса определяется middleware: cookie "sp_lang" → Accept-Language → "en".
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLang — язык по умолчанию и fallback для отсутствующих ключей.
const DefaultLang = "en"

// Languages — коды поддерживаемых языков в порядке предпочтения.
var Languages = []string{"en", "ru"}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Russian,
})

type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle — каталоги переводов всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang → key → перевод
}

// NewBundle создаёт пустой Bundle.
func NewBundle() *Bundle {
	return &Bundle{catalogs: make(map[string]map[string]string)}
}

// Load создаёт Bundle со встроенными каталогами locales/{en,ru}.json.
func Load(logger *slog.Logger) (*Bundle, error) {
	b := NewBundle()
	for _, lang := range Languages {
		path := fmt.Sprintf("locales/%s.json", lang)
		data, err := localeFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}
		n, err := b.LoadMessages(lang, data)
		if err != nil {
			return nil, err
		}
		logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", n),
		)
	}
	return b, nil
}

// LoadMessages загружает плоский JSON-каталог {"key": "перевод"} для языка.
// Возвращает количество ключей.
func (b *Bundle) LoadMessages(lang string, data []byte) (int, error) {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return 0, fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages
	return len(messages), nil
}

// Translate возвращает перевод ключа. Порядок поиска: запрошенный язык,
// затем английский; ненайденный ключ возвращается как есть.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if msg, ok := b.catalogs[DefaultLang][key]; ok {
		return msg
	}
	return key
}

// T возвращает перевод ключа на язык из контекста запроса.
func (b *Bundle) T(ctx context.Context, key string) string {
	return b.Translate(LangFromContext(ctx), key)
}

// Tf — T с подстановкой аргументов.
func (b *Bundle) Tf(ctx context.Context, key string, args ...any) string {
	format := b.T(ctx, key)
	if len(args) == 0 {
		return format
	}
	return sprintf(format, args...)
}

// sprintf — формат-строки приходят из каталогов, go vet их не проверяет.
var sprintf = fmt.Sprintf

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста (по умолчанию "en").
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// Supported сообщает, поддерживается ли язык.
func Supported(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// MatchLanguage выбирает язык по заголовку Accept-Language.
func MatchLanguage(acceptLanguage string) string {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	base, _ := tag.Base()
	if strings.HasPrefix(base.String(), "ru") {
		return "ru"
	}
	return DefaultLang
}
