package filestorage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory. It backs local runs without
// an object server and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

type memoryObject struct {
	data []byte
	info ObjectInfo
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: map[string]memoryObject{}, baseURL: baseURL}
}

func (s *MemoryStore) Put(_ context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}
	info := ObjectInfo{Key: key, Size: int64(len(data)), ContentType: opt.ContentType, LastModified: time.Now()}

	s.mu.Lock()
	s.objects[key] = memoryObject{data: data, info: info}
	s.mu.Unlock()
	return info, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}
	return s.baseURL + "/" + key + "?expires=" + url.QueryEscape(expiry.String()), nil
}
