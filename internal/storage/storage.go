// Пакет storage — общий контракт backend'ов хранения загруженных документов.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound — объект отсутствует в хранилище.
var ErrObjectNotFound = errors.New("объект не найден в хранилище")

// ObjectInfo — метаданные сохранённого объекта.
type ObjectInfo struct {
	// Name — имя объекта (совпадает с именем, сохранённым в trainings.file)
	Name string
	// Size — размер в байтах
	Size int64
	// ModTime — время последней записи
	ModTime time.Time
}

// Backend — хранилище объектов с плоским пространством имён.
type Backend interface {
	// Put записывает содержимое r под именем name и возвращает размер.
	// Частично записанный объект не должен становиться видимым.
	Put(ctx context.Context, name string, r io.Reader) (int64, error)
	// Open открывает объект для чтения. ErrObjectNotFound, если объекта нет.
	// Вызывающий код обязан закрыть reader.
	Open(ctx context.Context, name string) (io.ReadSeekCloser, ObjectInfo, error)
	// Delete удаляет объект. Отсутствие объекта ошибкой не считается.
	Delete(ctx context.Context, name string) error
	// List возвращает все объекты хранилища.
	List(ctx context.Context) ([]ObjectInfo, error)
}
