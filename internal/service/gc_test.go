package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/safety-portal/internal/storage"
)

func TestGCRunOnce_RemovesOldOrphans(t *testing.T) {
	env := newTrainingEnv(t)
	ctx := context.Background()

	owned, err := env.svc.Create(ctx, TrainingInput{Title: "A", File: pdf("owned.pdf", "x")})
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	orphan, err := env.uploads.Accept(ctx, "orphan.pdf", strings.NewReader("o"))
	if err != nil {
		t.Fatalf("Accept() ошибка: %v", err)
	}

	gc := NewGCService(env.repo, env.uploads, time.Hour, time.Hour, testLogger())

	// Свежие документы не трогаются
	res := gc.RunOnce(ctx)
	if res.Scanned != 2 || res.DeletedCount != 0 || res.Errors != 0 {
		t.Fatalf("RunOnce() = %+v, хотели 2 просмотренных без удалений", res)
	}

	// Через два часа осиротевший документ удаляется
	gc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	res = gc.RunOnce(ctx)
	if res.DeletedCount != 1 {
		t.Fatalf("DeletedCount = %d, хотели 1", res.DeletedCount)
	}
	if _, _, err := env.uploads.Resolve(ctx, orphan); err == nil {
		t.Error("осиротевший документ не удалён")
	}
	rc, _, err := env.uploads.Resolve(ctx, owned.FileName())
	if err != nil {
		t.Fatalf("документ обучения удалён GC: %v", err)
	}
	rc.Close()
}

// failingList — UploadStore с ошибкой получения списка.
type failingList struct {
	UploadStore
}

func (failingList) List(context.Context) ([]storage.ObjectInfo, error) {
	return nil, errors.New("хранилище недоступно")
}

func TestGCRunOnce_ListError(t *testing.T) {
	env := newTrainingEnv(t)
	ctx := context.Background()
	if _, err := env.uploads.Accept(ctx, "orphan.pdf", strings.NewReader("o")); err != nil {
		t.Fatalf("Accept() ошибка: %v", err)
	}

	gc := NewGCService(env.repo, failingList{env.uploads}, time.Hour, 0, testLogger())
	res := gc.RunOnce(ctx)
	if res.Errors != 1 || res.DeletedCount != 0 {
		t.Errorf("RunOnce() = %+v, хотели одну ошибку без удалений", res)
	}
	if n := env.storedCount(t); n != 1 {
		t.Errorf("документов %d, хотели 1", n)
	}
}

func TestGCStartStop(t *testing.T) {
	env := newTrainingEnv(t)
	ctx := context.Background()
	if _, err := env.uploads.Accept(ctx, "orphan.pdf", strings.NewReader("o")); err != nil {
		t.Fatalf("Accept() ошибка: %v", err)
	}

	// Нулевой интервал: GC не запускается, Stop безопасен
	disabled := NewGCService(env.repo, env.uploads, 0, 0, testLogger())
	disabled.Start(ctx)
	disabled.Stop()
	if n := env.storedCount(t); n != 1 {
		t.Fatalf("отключённый GC удалил документ")
	}

	gc := NewGCService(env.repo, env.uploads, time.Hour, 0, testLogger())
	gc.Start(ctx)

	// Первый проход выполняется сразу после старта
	deadline := time.Now().Add(5 * time.Second)
	for env.storedCount(t) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("первый проход GC не удалил документ")
		}
		time.Sleep(10 * time.Millisecond)
	}
	gc.Stop()
}
