package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidStatus       = errors.New("invalid invoice status")
	ErrDuplicateImage      = errors.New("image already registered")
	ErrUploadFailed        = errors.New("file upload to storage failed")
)
