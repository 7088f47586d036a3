package uploads

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxStemLen — предельная длина имени без расширения после очистки.
const maxStemLen = 100

// unsafeChars — всё, что не входит в [A-Za-z0-9_.-].
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// storedNameRe — допустимое имя сохранённого объекта.
var storedNameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// toASCII раскладывает строку в NFKD и отбрасывает не-ASCII руны.
func toASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return out
}

// SecureFilename приводит имя файла от клиента к безопасному виду:
// NFKD → ASCII, разделители пути и пробельные последовательности → "_",
// удаление символов вне [A-Za-z0-9_.-], обрезка "." и "_" по краям.
// Результат может быть пустым.
func SecureFilename(name string) string {
	name = toASCII(name)
	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// extension возвращает расширение исходного имени в нижнем регистре, без точки.
func extension(rawFilename string) string {
	i := strings.LastIndexByte(rawFilename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(rawFilename[i+1:])
}

// storedBaseName строит имя документа без токена. Гарантирует наличие
// допустимого расширения ext, даже если основа имени очистилась до пустой строки.
func storedBaseName(rawFilename, ext string) string {
	// Клиенты (старые IE) присылают полный путь
	base := path.Base(strings.ReplaceAll(rawFilename, `\`, "/"))
	stem := base[:len(base)-len(ext)-1]

	stem = SecureFilename(stem)
	if len(stem) > maxStemLen {
		stem = strings.TrimRight(stem[:maxStemLen], "._")
	}
	if stem == "" {
		stem = "file"
	}
	return stem + "." + ext
}

// validStoredName проверяет имя, пришедшее из URL, перед обращением к хранилищу.
func validStoredName(name string) bool {
	return storedNameRe.MatchString(name) &&
		!strings.Contains(name, "..") &&
		!strings.HasPrefix(name, ".")
}
