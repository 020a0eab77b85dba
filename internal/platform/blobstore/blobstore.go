// Package blobstore provides binary object storage for generated assessment
// documents. It defines the BlobStore interface, an in-memory implementation
// for development and tests, and an S3-compatible backend for production.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// MaxFileSize is the maximum allowed blob size in bytes (50 MB). Generated
// PDFs are usually well under 1 MB.
const MaxFileSize = 50 * 1024 * 1024

// BlobMetadata describes a stored document.
type BlobMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlobStore defines the contract for document storage backends.
type BlobStore interface {
	// Store persists content and returns its metadata including the assigned id.
	Store(ctx context.Context, fileName, contentType string, content io.Reader) (*BlobMetadata, error)
	// Open returns the content and metadata for a stored document.
	Open(ctx context.Context, id string) (io.ReadCloser, *BlobMetadata, error)
	// URL returns a fetchable URL for the document, or "" when the backend
	// cannot produce one and the document must be streamed through the API.
	URL(ctx context.Context, id string) (string, error)
	// Delete removes a document.
	Delete(ctx context.Context, id string) error
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

// InMemoryBlobStore is a thread-safe, in-memory BlobStore for testing/dev.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
	// baseURL prefixes URLs returned by URL(), e.g. "/api/v1/documents".
	baseURL string
}

// NewInMemoryBlobStore returns a ready-to-use InMemoryBlobStore. Documents are
// served through the API at baseURL/{id}.
func NewInMemoryBlobStore(baseURL string) *InMemoryBlobStore {
	return &InMemoryBlobStore{
		blobs:   make(map[string]*storedBlob),
		baseURL: baseURL,
	}
}

// Store reads the content, computes a SHA-256 hash, and keeps the blob in
// memory under a fresh id.
func (s *InMemoryBlobStore) Store(_ context.Context, fileName, contentType string, content io.Reader) (*BlobMetadata, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)

	meta := BlobMetadata{
		ID:          uuid.New().String(),
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        fmt.Sprintf("%x", h),
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta // copy
	return &out, nil
}

// Open returns an io.ReadCloser over the blob content and its metadata.
func (s *InMemoryBlobStore) Open(_ context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.metadata // copy
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

// URL returns the API path the document is served under.
func (s *InMemoryBlobStore) URL(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	_, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return "", ErrBlobNotFound
	}
	return fmt.Sprintf("%s/%s", s.baseURL, id), nil
}

// Delete removes a blob by ID.
func (s *InMemoryBlobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}
