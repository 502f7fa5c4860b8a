package api

import (
	"github.com/starford/cravetown/internal/catalog"
	"github.com/starford/cravetown/internal/models"
)

// InvokeResponse wraps a successful command result.
type InvokeResponse struct {
	Result any `json:"result"`
}

// ParamInfo describes a command parameter.
type ParamInfo struct {
	Name        string `json:"name" example:"versionId" validate:"required"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	List        bool   `json:"list,omitempty"`
}

// CommandInfo describes a registered command.
type CommandInfo struct {
	Name        string      `json:"name" example:"create_version_directory" validate:"required"`
	Description string      `json:"description"`
	Params      []ParamInfo `json:"params"`
}

// CommandListResponse lists every command.
type CommandListResponse struct {
	Commands []CommandInfo `json:"commands" validate:"required"`
}

// FileWriteResponse is returned after a raw file write.
type FileWriteResponse struct {
	Path     string `json:"path" example:"/home/u/data/base/commodities.json" validate:"required"`
	Checksum string `json:"checksum" validate:"required"`
}

// VersionListResponse wraps the version listing.
type VersionListResponse struct {
	Versions []models.VersionSummary `json:"versions" validate:"required"`
}

// VersionFilesResponse wraps the catalogued files of a version.
type VersionFilesResponse struct {
	Version string            `json:"version" validate:"required"`
	Files   []catalog.FileRow `json:"files" validate:"required"`
}
