package utils

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"mime/multipart"
	"path/filepath"

	_ "golang.org/x/image/webp"

	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
)

var allowedAvatarMimes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AvatarLimits bounds what a profile upload may look like. Zero values
// disable the corresponding check.
type AvatarLimits struct {
	MaxSizeBytes   int64
	MaxPixelWidth  int
	MaxPixelHeight int
}

// ValidateAvatar checks type, size and pixel dimensions of an uploaded
// avatar before it is handed to the upload collaborator.
func ValidateAvatar(fileHeader *multipart.FileHeader, limits AvatarLimits) error {
	if limits.MaxSizeBytes > 0 && fileHeader.Size > limits.MaxSizeBytes {
		return internal_errors.BadRequest(fmt.Sprintf("Avatar exceeds maximum size of %d bytes", limits.MaxSizeBytes))
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if !allowedAvatarMimes[mimeType] {
		return internal_errors.BadRequest(fmt.Sprintf("Unsupported avatar type %q", mimeType))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded avatar: %w", err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return internal_errors.BadRequest("Avatar is not a decodable image")
	}
	if limits.MaxPixelWidth > 0 && cfg.Width > limits.MaxPixelWidth {
		return internal_errors.BadRequest(fmt.Sprintf("Avatar wider than %d pixels", limits.MaxPixelWidth))
	}
	if limits.MaxPixelHeight > 0 && cfg.Height > limits.MaxPixelHeight {
		return internal_errors.BadRequest(fmt.Sprintf("Avatar taller than %d pixels", limits.MaxPixelHeight))
	}
	return nil
}
