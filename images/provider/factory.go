// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package provider

import (
	"context"
	"fmt"

	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
)

// NewProvider builds the BlobProvider selected by STORAGE_PROVIDER.
// publicBaseURL roots the URLs of the memory provider.
func NewProvider(ctx context.Context, cfg *platformconfig.StorageConfig, publicBaseURL string) (BlobProvider, error) {
	switch cfg.Provider {
	case "", "memory":
		return NewMemoryProvider(publicBaseURL), nil
	case "s3", "r2":
		return NewS3Provider(ctx, cfg)
	case "minio":
		return NewMinioProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
