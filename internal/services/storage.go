package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
)

// Storage uploads objects to one public bucket.
type Storage struct {
	client *Client
	bucket string
}

// NewStorage creates a [Storage] for bucket.
func NewStorage(client *Client, bucket string) *Storage {
	return &Storage{client: client, bucket: bucket}
}

// ObjectPath returns "<userID>/<uuid>.<ext>" for file.
func ObjectPath(userID string, file models.ImageFile) string {
	return userID + "/" + shared.GenerateID() + "." + file.Ext()
}

// Upload stores file at objectPath and returns its public URL.
func (s *Storage) Upload(ctx context.Context, objectPath string, file models.ImageFile) (string, error) {
	if len(file.Data) == 0 {
		return "", fmt.Errorf("%w: empty image", shared.ErrInvalidInput)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}

	header := http.Header{}
	header.Set("x-upsert", "false")
	header.Set("Cache-Control", "max-age=3600")

	_, _, err := s.client.do(ctx, request{
		method:      http.MethodPost,
		path:        storagePrefix + s.bucket + "/" + escapePath(objectPath),
		body:        bytes.NewReader(file.Data),
		contentType: contentType,
		header:      header,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return s.PublicURL(objectPath), nil
}

// PublicURL returns the unauthenticated URL of objectPath.
func (s *Storage) PublicURL(objectPath string) string {
	return s.client.BaseURL() + storagePrefix + "public/" + s.bucket + "/" + escapePath(objectPath)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
