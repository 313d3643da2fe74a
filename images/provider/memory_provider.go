// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/qolzam/imagehost/internal/utils"
)

// MediaPath is the route prefix the memory provider's URLs point at
const MediaPath = "/media"

// MemoryProvider keeps blobs in process. URLs resolve through the API's
// own /media route, so it is usable for local runs and tests.
type MemoryProvider struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

// NewMemoryProvider creates an empty store whose URLs are rooted at baseURL
func NewMemoryProvider(baseURL string) *MemoryProvider {
	return &MemoryProvider{
		objects: make(map[string]Object),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (p *MemoryProvider) Put(_ context.Context, key string, contentType string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[key] = Object{Data: buf, ContentType: contentType}
	return nil
}

func (p *MemoryProvider) Get(_ context.Context, key string) (*Object, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	obj, ok := p.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)
	return &Object{Data: data, ContentType: obj.ContentType}, nil
}

func (p *MemoryProvider) Exists(_ context.Context, key string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.objects[key]
	return ok, nil
}

func (p *MemoryProvider) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.objects, key)
	return nil
}

func (p *MemoryProvider) URL(_ context.Context, key string) (string, error) {
	return utils.JoinURL(p.baseURL, MediaPath+"/"+key), nil
}

// Len returns the number of stored objects
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.objects)
}
