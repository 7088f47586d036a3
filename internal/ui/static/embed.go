// Пакет static — встроенные статические ресурсы UI (CSS).
package static

import (
	"embed"
	"net/http"
)

//go:embed css/*.css
var content embed.FS

// FileSystem возвращает http.FileSystem для раздачи /static/*.
// Файлы доступны по путям вида /static/css/style.css.
func FileSystem() http.FileSystem {
	return http.FS(content)
}
