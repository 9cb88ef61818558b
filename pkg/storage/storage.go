package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/jordanlanch/realtycrm/pkg/domain"
)

// MaxImageSize is the largest accepted property image
const MaxImageSize = 10 << 20

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Store saves uploaded files and returns their public URL
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Config selects and configures a Store
type Config struct {
	Type           string // local or s3
	LocalPath      string
	PublicURL      string
	AWSRegion      string
	S3Bucket       string
	AWSAccessKeyID string
	AWSSecretKey   string
}

// New returns the Store selected by cfg.Type
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStore(cfg.LocalPath, cfg.PublicURL)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// ImageKey builds the object key of a property image and returns the
// content type implied by its extension
func ImageKey(propertyID, filename string) (string, string, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := imageExtensions[ext]
	if !ok {
		return "", "", domain.NewValidationError("image must be a .jpg, .jpeg, .png or .webp file")
	}
	return fmt.Sprintf("properties/%s/%s%s", propertyID, uuid.NewString(), ext), contentType, nil
}
