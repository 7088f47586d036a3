package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/bigkaa/safety-portal/internal/storage/filestore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *filestore.FileStore) {
	t.Helper()
	fs, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	return New(fs, testLogger(), opts...), fs
}

var tokenRe = regexp.MustCompile(`^[0-9a-f]{32}_`)

// TestAccept_RoundTrip проверяет, что Resolve(Accept(name, content)) == content.
func TestAccept_RoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	content := []byte("%PDF-1.7 fire drill plan")
	name, err := m.Accept(ctx, "drill.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Accept() ошибка: %v", err)
	}
	if !tokenRe.MatchString(name) || !strings.HasSuffix(name, "_drill.pdf") {
		t.Errorf("имя хранения %q не соответствует формату {token}_drill.pdf", name)
	}

	rc, info, err := m.Resolve(ctx, name)
	if err != nil {
		t.Fatalf("Resolve() ошибка: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, content) {
		t.Error("содержимое после Resolve не совпадает с загруженным")
	}
	if info.Size != int64(len(content)) {
		t.Errorf("info.Size = %d, ожидалось %d", info.Size, len(content))
	}
}

// TestAccept_UniqueNames проверяет, что одинаковые имена не перезаписывают друг друга.
func TestAccept_UniqueNames(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Accept(ctx, "plan.docx", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Accept() ошибка: %v", err)
	}
	b, err := m.Accept(ctx, "plan.docx", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Accept() ошибка: %v", err)
	}
	if a == b {
		t.Fatalf("одинаковые имена хранения: %s", a)
	}
}

// TestAccept_InvalidType проверяет отказ без записи для неразрешённых расширений.
func TestAccept_InvalidType(t *testing.T) {
	m, fs := newTestManager(t)
	ctx := context.Background()

	for _, name := range []string{"virus.exe", "noext", "image.PNG", "archive.pdf.zip", ""} {
		_, err := m.Accept(ctx, name, strings.NewReader("data"))
		if !errors.Is(err, ErrInvalidFileType) {
			t.Errorf("Accept(%q) = %v, ожидалась ErrInvalidFileType", name, err)
		}
	}

	list, _ := fs.List(ctx)
	if len(list) != 0 {
		t.Errorf("после отказов в хранилище %d объектов", len(list))
	}
}

// TestAccept_UppercaseExtension проверяет регистронезависимую проверку расширения.
func TestAccept_UppercaseExtension(t *testing.T) {
	m, _ := newTestManager(t)
	name, err := m.Accept(context.Background(), "REPORT.PDF", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Accept() ошибка: %v", err)
	}
	if !strings.HasSuffix(name, "_REPORT.pdf") {
		t.Errorf("имя хранения = %q", name)
	}
}

// TestAccept_TooLarge проверяет отказ без частичной записи.
func TestAccept_TooLarge(t *testing.T) {
	m, fs := newTestManager(t, WithMaxSize(10))
	ctx := context.Background()

	_, err := m.Accept(ctx, "big.pdf", bytes.NewReader(make([]byte, 11)))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("Accept() = %v, ожидалась ErrPayloadTooLarge", err)
	}
	list, _ := fs.List(ctx)
	if len(list) != 0 {
		t.Errorf("после отказа в хранилище %d объектов", len(list))
	}

	// Ровно на границе — допустимо
	if _, err := m.Accept(ctx, "edge.pdf", bytes.NewReader(make([]byte, 10))); err != nil {
		t.Errorf("Accept() на границе лимита: %v", err)
	}
}

// TestAccept_EmptyStem проверяет имя, очищенное до пустой основы.
func TestAccept_EmptyStem(t *testing.T) {
	m, _ := newTestManager(t, WithTokenFunc(func() string { return "0123456789abcdef0123456789abcdef" }))

	name, err := m.Accept(context.Background(), "отчёт.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Accept() ошибка: %v", err)
	}
	if name != "0123456789abcdef0123456789abcdef_file.pdf" {
		t.Errorf("имя хранения = %q", name)
	}
}

// TestRemove_Idempotent проверяет удаление и повторное удаление.
func TestRemove_Idempotent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	name, err := m.Accept(ctx, "x.doc", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Accept() ошибка: %v", err)
	}
	if err := m.Remove(ctx, name); err != nil {
		t.Fatalf("Remove() ошибка: %v", err)
	}
	if err := m.Remove(ctx, name); err != nil {
		t.Errorf("повторный Remove() ошибка: %v", err)
	}
	if _, _, err := m.Resolve(ctx, name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() после удаления = %v, ожидалась ErrNotFound", err)
	}
}

// TestResolve_RejectsTraversal проверяет отказ для имён с выходом из каталога.
func TestResolve_RejectsTraversal(t *testing.T) {
	m, _ := newTestManager(t)
	for _, name := range []string{"../secret.pdf", "..", ".hidden", "a/b.pdf", `a\b.pdf`, "x y.pdf"} {
		if _, _, err := m.Resolve(context.Background(), name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%q) = %v, ожидалась ErrNotFound", name, err)
		}
	}
}

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{"i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"  spaced   out  ", "spaced_out"},
		{"__init__", "init"},
		{"тест", ""},
		{"a\\b\\c.pdf", "a_b_c.pdf"},
	}
	for _, tt := range tests {
		if got := SecureFilename(tt.in); got != tt.want {
			t.Errorf("SecureFilename(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}

func TestStoredBaseName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"drill.pdf", "drill.pdf"},
		{`C:\Users\ivan\Desktop\plan.docx`, "plan.docx"},
		{"/tmp/../инструкция.doc", "file.doc"},
		{"Annual Report.PDF", "Annual_Report.pdf"},
		{strings.Repeat("a", 300) + ".pdf", strings.Repeat("a", maxStemLen) + ".pdf"},
	}
	for _, tt := range tests {
		if got := storedBaseName(tt.raw, extension(tt.raw)); got != tt.want {
			t.Errorf("storedBaseName(%q) = %q, ожидалось %q", tt.raw, got, tt.want)
		}
	}
}
