package services

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const uploadRootFolder = "solace"

// UploadResult describes a stored file.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format"`
	Bytes    int    `json:"bytes"`
}

// Uploader stores user-provided files such as credential documents.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, folder string) (UploadResult, error)
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryService{cld: cld}, nil
}

// Upload stores r under solace/<folder>. The resource type is detected by Cloudinary.
func (s *CloudinaryService) Upload(ctx context.Context, r io.Reader, folder string) (UploadResult, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       path.Join(uploadRootFolder, folder),
		ResourceType: "auto",
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return UploadResult{}, fmt.Errorf("cloudinary rejected upload: %s", res.Error.Message)
	}
	return UploadResult{URL: res.SecureURL, PublicID: res.PublicID, Format: res.Format, Bytes: res.Bytes}, nil
}
