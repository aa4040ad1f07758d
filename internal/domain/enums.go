package domain

// FileType represents the allowed image types for extraction uploads.
type FileType string

const (
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"image/jpeg": FileTypeJPG,
	"image/png":  FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// InvoiceStatus represents the lifecycle of an extracted invoice record.
type InvoiceStatus string

const (
	// StatusPending marks a record created by a save-intent extraction,
	// awaiting review.
	StatusPending InvoiceStatus = "PENDING"
	// StatusChecking marks a review-only extraction result that was never
	// persisted, or the echo of an existing record's pipeline position.
	StatusChecking InvoiceStatus = "CHECKING"
	// StatusProcessed marks a record confirmed through the update endpoint.
	// Extraction never sets this.
	StatusProcessed InvoiceStatus = "PROCESSED"
)

// ValidStatuses lists the accepted invoice statuses for request validation.
var ValidStatuses = map[InvoiceStatus]bool{
	StatusPending:   true,
	StatusChecking:  true,
	StatusProcessed: true,
}
