package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const archiveFolder = "mindjournal/exports"

// ErrArchiveDisabled is returned when no archive destination is configured.
var ErrArchiveDisabled = errors.New("export archive is not configured")

// Archive is the destination for uploaded export documents.
type Archive interface {
	// Store uploads data under name and returns a URL it can be fetched from.
	Store(ctx context.Context, name string, data []byte) (string, error)
}

// ArchiveUploader stores exports as raw Cloudinary assets.
type ArchiveUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewArchiveUploader(cloudName, apiKey, apiSecret string) (*ArchiveUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &ArchiveUploader{cld: cld, folder: archiveFolder}, nil
}

func (s *ArchiveUploader) Store(ctx context.Context, name string, data []byte) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     name,
		ResourceType: "raw", // JSON is neither image nor video
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// ArchiveName names an export of userID taken at t.
func ArchiveName(userID string, t time.Time) string {
	return fmt.Sprintf("journal-%s-%s.json", userID, t.UTC().Format("20060102T150405Z"))
}

// Disabled is the Archive used when Cloudinary is not configured.
type Disabled struct{}

func (Disabled) Store(context.Context, string, []byte) (string, error) {
	return "", ErrArchiveDisabled
}
