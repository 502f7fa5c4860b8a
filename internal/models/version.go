// Package models defines the domain types shared across cravetown packages.
package models

import "time"

// FileMetadata is a lightweight description of one JSON file on disk.
type FileMetadata struct {
	Path      string    `json:"path"` // relative to the listed directory
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VersionSummary describes a version directory as seen by the catalog
// and the manifest.
type VersionSummary struct {
	ID         string    `json:"id"`
	Files      int       `json:"files"`
	UpdatedAt  time.Time `json:"updatedAt"`
	OnDisk     bool      `json:"onDisk"`
	InManifest bool      `json:"inManifest"`
	Active     bool      `json:"active"`
}
