package storage

import (
	"context"
	"sync"
	"time"

	"github.com/pharmawms/backend/internal/application/document"
)

var _ document.Archive = (*MemoryArchive)(nil)

// MemoryArchive keeps documents in process. Used when object storage is
// disabled and in tests.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string]StoredObject
	BaseURL string
	Expires time.Duration
}

// StoredObject is a document held by MemoryArchive
type StoredObject struct {
	ContentType string
	Body        []byte
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		objects: make(map[string]StoredObject),
		BaseURL: "memory://documents",
		Expires: 15 * time.Minute,
	}
}

func (m *MemoryArchive) Put(_ context.Context, key, contentType string, body []byte) error {
	if key == "" {
		return ErrKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{ContentType: contentType, Body: append([]byte(nil), body...)}
	return nil
}

func (m *MemoryArchive) PresignedURL(_ context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrKeyRequired
	}
	return m.BaseURL + "/" + key, time.Now().Add(m.Expires), nil
}

// Get returns a stored document
func (m *MemoryArchive) Get(key string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len returns the number of stored documents
func (m *MemoryArchive) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
