// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package provider

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Get when the key does not exist
var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob with its media type
type Object struct {
	Data        []byte
	ContentType string
}

// BlobProvider stores originals and rendered thumbnails.
// Keys are slash separated paths such as uploads/originals/<id>.png.
type BlobProvider interface {
	// Put writes data under key, replacing any previous object
	Put(ctx context.Context, key string, contentType string, data []byte) error

	// Get reads the object under key. Missing keys return ErrObjectNotFound.
	Get(ctx context.Context, key string) (*Object, error)

	// Exists reports whether key is present
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a client-facing URL for key.
	// For public buckets this is the CDN URL, otherwise a presigned GET.
	URL(ctx context.Context, key string) (string, error)
}
