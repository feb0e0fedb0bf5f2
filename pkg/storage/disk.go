// Package storage stores uploaded files on a local directory or an
// S3-compatible bucket (AWS S3, MinIO, R2, Spaces).
//
//	disk, err := storage.Open()
//	err = disk.Put(ctx, "products/65a1.../a.png", file, "image/png")
//	url := disk.URL("products/65a1.../a.png")
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/shashiranjanraj/storefront/config"
)

// Disk is the driver interface.
type Disk interface {
	// Put writes r to path, replacing any existing object.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, path string) bool

	// Delete removes path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string
}

// Open returns the disk named by STORAGE_DISK ("local" or "s3").
func Open() (Disk, error) {
	switch name := config.StorageDisk(); name {
	case "local", "":
		return NewLocal(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3(context.Background(), S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	default:
		return nil, fmt.Errorf("storage: unsupported STORAGE_DISK %q (supported: local, s3)", name)
	}
}
