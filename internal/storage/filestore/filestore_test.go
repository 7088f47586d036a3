package filestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bigkaa/safety-portal/internal/storage"
)

// TestNew_CreatesDirectory проверяет создание директории данных.
func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	if fs.DataDir() != dir {
		t.Errorf("ожидался путь %s, получен %s", dir, fs.DataDir())
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("директория не создана: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("путь не является директорией")
	}
}

// TestPutOpen проверяет запись и чтение файла.
func TestPutOpen(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	ctx := context.Background()

	content := []byte("%PDF-1.4 тестовый документ")
	size, err := fs.Put(ctx, "abc_drill.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), size)
	}

	// Временный файл не остаётся после rename
	if _, err := os.Stat(filepath.Join(fs.DataDir(), "abc_drill.pdf"+tmpSuffix)); !os.IsNotExist(err) {
		t.Error("временный файл не удалён после записи")
	}

	rc, info, err := fs.Open(ctx, "abc_drill.pdf")
	if err != nil {
		t.Fatalf("ошибка открытия: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("содержимое не совпадает")
	}
	if info.Name != "abc_drill.pdf" || info.Size != int64(len(content)) {
		t.Errorf("info = %+v", info)
	}
}

// errReader возвращает ошибку после первой порции данных.
type errReader struct{ sent bool }

func (r *errReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("обрыв соединения")
}

// TestPut_ErrorLeavesNothing проверяет, что при ошибке записи не остаётся файлов.
func TestPut_ErrorLeavesNothing(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	if _, err := fs.Put(context.Background(), "broken.pdf", &errReader{}); err == nil {
		t.Fatal("ожидалась ошибка записи")
	}

	entries, _ := os.ReadDir(fs.DataDir())
	if len(entries) != 0 {
		t.Errorf("после ошибки в директории осталось %d файлов", len(entries))
	}
}

// TestOpen_NotFound проверяет ошибку для отсутствующего файла.
func TestOpen_NotFound(t *testing.T) {
	fs, _ := New(t.TempDir())

	for _, name := range []string{"missing.pdf", "../etc/passwd", "a/b.pdf", ""} {
		_, _, err := fs.Open(context.Background(), name)
		if !errors.Is(err, storage.ErrObjectNotFound) {
			t.Errorf("Open(%q) = %v, ожидалась ErrObjectNotFound", name, err)
		}
	}
}

// TestDelete_Idempotent проверяет, что повторное удаление не ошибка.
func TestDelete_Idempotent(t *testing.T) {
	fs, _ := New(t.TempDir())
	ctx := context.Background()

	if _, err := fs.Put(ctx, "x.pdf", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}
	if err := fs.Delete(ctx, "x.pdf"); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if err := fs.Delete(ctx, "x.pdf"); err != nil {
		t.Errorf("повторное удаление вернуло ошибку: %v", err)
	}
	if _, _, err := fs.Open(ctx, "x.pdf"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("файл доступен после удаления: %v", err)
	}
	if err := fs.Delete(ctx, "../x.pdf"); err == nil {
		t.Error("удаление с разделителем пути должно возвращать ошибку")
	}
}

// TestList проверяет перечисление файлов без временных и директорий.
func TestList(t *testing.T) {
	fs, _ := New(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.docx"} {
		if _, err := fs.Put(ctx, name, bytes.NewReader([]byte(name))); err != nil {
			t.Fatalf("ошибка сохранения: %v", err)
		}
	}
	os.WriteFile(filepath.Join(fs.DataDir(), "c.pdf"+tmpSuffix), []byte("tmp"), 0o640)
	os.Mkdir(filepath.Join(fs.DataDir(), "sub"), 0o750)

	list, err := fs.List(ctx)
	if err != nil {
		t.Fatalf("ошибка List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List вернул %d объектов, ожидалось 2: %+v", len(list), list)
	}
	names := map[string]bool{}
	for _, o := range list {
		names[o.Name] = true
	}
	if !names["a.pdf"] || !names["b.docx"] {
		t.Errorf("List = %+v", list)
	}
}
