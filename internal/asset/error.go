package asset

import "errors"

var (
	ErrUpload        = errors.New("asset upload failed")
	ErrNotConfigured = errors.New("asset store is not configured")
	ErrInvalidURL    = errors.New("invalid CLOUDINARY_URL")
)
