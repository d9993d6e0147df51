package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error: %v", err)
	}

	ctx := context.Background()
	id := uuid.New()

	path, err := s.Upload(ctx, id, "labour_law.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if path == "" {
		t.Fatal("Upload() returned empty storage path")
	}

	reader, err := s.Download(ctx, path)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("downloaded %q, want original content", data)
	}

	if err := s.Delete(ctx, path); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Download(ctx, path); err == nil {
		t.Error("Download() succeeded after Delete()")
	}
}

func TestLocalStorageDeleteMissingFile(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error: %v", err)
	}
	if err := s.Delete(context.Background(), "nope/missing.pdf"); err != nil {
		t.Errorf("Delete() on missing file returned %v, want nil", err)
	}
}
