package localfs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

func TestSaveAndOpenNestedKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	key := "imports/job-1/knowledge.json"
	if err := store.Save(ctx, key, strings.NewReader(`{"documents": []}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"documents": []}` {
		t.Fatalf("unexpected content: %s", data)
	}
}

func TestOpenMissingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := store.Open(context.Background(), "imports/absent/file.csv"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"../outside.txt", "/etc/passwd", "a/../../b"} {
		if err := store.Save(ctx, key, strings.NewReader("x")); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Save(%q) = %v, want validation error", key, err)
		}
		if _, err := store.Open(ctx, key); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Open(%q) = %v, want validation error", key, err)
		}
	}
}
