// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package media

import "time"

// Media is the stored metadata for one uploaded file. The bytes live on
// disk under the configured media root; the row is the source of truth
// for existence and ownership.
type Media struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// MaxUploadBytes caps a single upload at 10 MiB.
const MaxUploadBytes int64 = 10 << 20

// allowedContentTypes maps accepted upload types to their canonical
// file extension.
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ExtensionFor returns the canonical extension for an accepted content
// type, or false when the type is not allowed.
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := allowedContentTypes[contentType]
	return ext, ok
}
