package services

import (
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/eventhub/internal/helpers"
)

// ImageUploader turns image references (URLs, data URIs or file paths) into
// hosted URLs.
type ImageUploader interface {
	UploadImages(ctx context.Context, sources []string, folder string) ([]string, error)
}

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cld}
}

func (u *CloudinaryUploader) UploadImages(ctx context.Context, sources []string, folder string) ([]string, error) {
	return helpers.UploadImages(ctx, u.cld, sources, folder)
}
