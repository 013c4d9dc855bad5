package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/mamelilea/agrowtify-web/internal/models"
)

// MediaHost stores journal media outside the database.
type MediaHost interface {
	Upload(ctx context.Context, file io.Reader, opts UploadOptions) (*UploadedAsset, error)
	Destroy(ctx context.Context, fileKey string, kind models.MediaType) error
}

type UploadOptions struct {
	Folder   string
	Kind     models.MediaType
	Filename string
}

// UploadedAsset is what the media host hands back for one stored file.
type UploadedAsset struct {
	URL     string
	FileKey string
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryService{
		cld: cld,
	}, nil
}

func (s *CloudinaryService) Upload(ctx context.Context, file io.Reader, opts UploadOptions) (*UploadedAsset, error) {
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       opts.Folder,
		ResourceType: resourceType(opts.Kind),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary rejected upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" || res.PublicID == "" {
		return nil, errors.New("cloudinary returned an empty upload result")
	}
	return &UploadedAsset{URL: res.SecureURL, FileKey: res.PublicID}, nil
}

// Destroy removes an asset. An asset that is already gone counts as destroyed.
func (s *CloudinaryService) Destroy(ctx context.Context, fileKey string, kind models.MediaType) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     fileKey,
		ResourceType: resourceType(kind),
	})
	if err != nil {
		return fmt.Errorf("failed to destroy Cloudinary asset %s: %w", fileKey, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary rejected destroy of %s: %s", fileKey, res.Error.Message)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary destroy of %s returned %q", fileKey, res.Result)
	}
	return nil
}

// Ping checks the credentials against the Cloudinary admin API.
func (s *CloudinaryService) Ping(ctx context.Context) (string, error) {
	res, err := s.cld.Admin.Ping(ctx)
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New(res.Error.Message)
	}
	return res.Status, nil
}

func resourceType(kind models.MediaType) string {
	if kind == models.MediaVideo {
		return "video"
	}
	return "image"
}
