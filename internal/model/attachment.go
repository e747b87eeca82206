package model

import (
	"strings"
	"time"
)

// MaxAttachmentSize is the largest file a release may carry (10 MiB).
const MaxAttachmentSize = 10 * 1024 * 1024

// AttachmentType classifies an uploaded file.
type AttachmentType string

const (
	AttachmentPDF   AttachmentType = "pdf"
	AttachmentImage AttachmentType = "image"
	AttachmentOther AttachmentType = "other"
)

// Attachment is a file attached to a release.
type Attachment struct {
	ID         string         `json:"id"`
	FileName   string         `json:"fileName"`
	FileURL    string         `json:"fileUrl"`
	FileType   AttachmentType `json:"fileType"`
	FileSize   int64          `json:"fileSize"`
	UploadedAt time.Time      `json:"uploadedAt"`
}

var supportedMIMETypes = map[AttachmentType][]string{
	AttachmentPDF:   {"application/pdf"},
	AttachmentImage: {"image/png", "image/jpeg", "image/jpg", "image/webp"},
}

// AttachmentTypeFor classifies a MIME type. Unsupported types map to "other".
func AttachmentTypeFor(mime string) AttachmentType {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	for typ, mimes := range supportedMIMETypes {
		for _, m := range mimes {
			if m == mime {
				return typ
			}
		}
	}
	return AttachmentOther
}

// IsSupportedMIME reports whether mime can be attached to a release.
func IsSupportedMIME(mime string) bool {
	return AttachmentTypeFor(mime) != AttachmentOther
}
