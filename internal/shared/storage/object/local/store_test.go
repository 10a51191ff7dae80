package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"campaign-backend/internal/shared/storage/object"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.SaveWithKey(ctx, "output/alto_template_alto_feed_1.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}
	if n != int64(len("png-bytes")) {
		t.Fatalf("expected %d bytes written, got %d", len("png-bytes"), n)
	}

	rc, err := store.Open(ctx, "output/alto_template_alto_feed_1.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestOpenMissingAndTraversal(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, err := store.Open(ctx, "output/missing.png"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Open(ctx, "../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := store.SaveWithKey(ctx, "/abs.png", "image/png", strings.NewReader("x")); err == nil {
		t.Fatalf("expected absolute key to be rejected")
	}
}
