package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestInMemoryStoreAndOpen(t *testing.T) {
	store := NewInMemoryBlobStore("/api/v1/documents")
	ctx := context.Background()

	meta, err := store.Store(ctx, "admission.pdf", "application/pdf", strings.NewReader("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.ID == "" {
		t.Fatal("expected assigned id")
	}
	if meta.Size != int64(len("%PDF-1.4 fake")) {
		t.Errorf("size mismatch: %d", meta.Size)
	}
	if meta.Hash == "" {
		t.Error("expected content hash")
	}

	rc, got, err := store.Open(ctx, meta.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, []byte("%PDF-1.4 fake")) {
		t.Error("content mismatch")
	}
	if got.FileName != "admission.pdf" {
		t.Errorf("filename mismatch: %q", got.FileName)
	}
}

func TestInMemoryURL(t *testing.T) {
	store := NewInMemoryBlobStore("/api/v1/documents")
	ctx := context.Background()

	meta, err := store.Store(ctx, "x.pdf", "application/pdf", strings.NewReader("pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := store.URL(ctx, meta.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "/api/v1/documents/"+meta.ID {
		t.Errorf("unexpected url %q", url)
	}

	if _, err := store.URL(ctx, "missing"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestInMemoryDelete(t *testing.T) {
	store := NewInMemoryBlobStore("/docs")
	ctx := context.Background()

	meta, _ := store.Store(ctx, "x.pdf", "application/pdf", strings.NewReader("pdf"))
	if err := store.Delete(ctx, meta.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.Open(ctx, meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound for double delete, got %v", err)
	}
}

func TestInMemoryTooLarge(t *testing.T) {
	store := NewInMemoryBlobStore("/docs")
	big := io.LimitReader(neverEnding('a'), MaxFileSize+2)
	if _, err := store.Store(context.Background(), "big.pdf", "application/pdf", big); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

type neverEnding byte

func (b neverEnding) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(b)
	}
	return len(p), nil
}
