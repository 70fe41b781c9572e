// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob stores KYC documents and returns opaque references to them.

Clients may send a document either as a reference to an object they already
uploaded, or inline as a base64 data-URI. Inline documents are decoded,
size-checked and written to the [Store] before any submission row exists, so
a submission only ever records references.
*/
package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/constants"
)

// Store writes an object and returns its reference.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// # Document Resolution

// allowedTypes maps accepted document MIME types to object key extensions.
var allowedTypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// referencePrefixes are the schemes accepted for pre-uploaded documents.
var referencePrefixes = []string{"https://", "http://", "s3://"}

/*
ResolveDocument turns a client-supplied document field into a stored reference.

Description: A pre-uploaded reference is returned unchanged. A data-URI is decoded,
checked against [constants.MaxDocumentBytes] and uploaded under
"kyc/<owner>/<field>-<uuid>.<ext>".

Parameters:
  - ctx: context.Context
  - store: Store
  - owner: string (author id or normalised email for in-flight registrations)
  - field: string (JSON field name, used in errors and the object key)
  - value: string

Returns:
  - string: The stored reference
  - error: VALIDATION_ERROR for malformed input, or wrapped upload failures
*/
func ResolveDocument(ctx context.Context, store Store, owner, field, value string) (string, error) {
	value = strings.TrimSpace(value)

	if !strings.HasPrefix(value, "data:") {
		for _, prefix := range referencePrefixes {
			if strings.HasPrefix(value, prefix) && len(value) > len(prefix) {
				return value, nil
			}
		}
		return "", invalid(field, "Must be a document reference or a data-URI")
	}

	contentType, data, err := decodeDataURI(value)
	if err != nil {
		return "", invalid(field, err.Error())
	}

	extension, ok := allowedTypes[contentType]
	if !ok {
		return "", invalid(field, "Unsupported document type "+contentType)
	}

	key := fmt.Sprintf("kyc/%s/%s-%s.%s", owner, field, uuid.NewString(), extension)
	reference, err := store.Put(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("blob_put_document_failed: %w", err)
	}
	return reference, nil
}

// decodeDataURI parses "data:<mime>;base64,<payload>".
func decodeDataURI(value string) (string, []byte, error) {
	header, payload, found := strings.Cut(strings.TrimPrefix(value, "data:"), ",")
	if !found {
		return "", nil, errors.New("malformed data-URI")
	}

	contentType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return "", nil, errors.New("data-URI must be base64 encoded")
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > constants.MaxDocumentBytes+3 {
		return "", nil, fmt.Errorf("document exceeds %d bytes", constants.MaxDocumentBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.New("invalid base64 payload")
	}
	if len(data) == 0 {
		return "", nil, errors.New("document is empty")
	}
	if len(data) > constants.MaxDocumentBytes {
		return "", nil, fmt.Errorf("document exceeds %d bytes", constants.MaxDocumentBytes)
	}

	return strings.ToLower(contentType), data, nil
}

func invalid(field, message string) *apperr.AppError {
	return apperr.ValidationError("Invalid document", apperr.FieldError{Field: field, Message: message})
}

// # In-Memory Store

// MemoryStore keeps objects in a map. Used in development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put implements [Store].
func (store *MemoryStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.objects[key] = append([]byte(nil), data...)
	return "mem://" + key, nil
}

// Len returns the number of stored objects.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.objects)
}
