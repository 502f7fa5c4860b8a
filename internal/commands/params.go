package commands

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cravetown/internal/manifest"
)

type readFileParams struct {
	FilePath string `json:"filePath"`
}

func (p *readFileParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.FilePath, validation.Required),
	)
}

type writeFileParams struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

func (p *writeFileParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.FilePath, validation.Required),
	)
}

// Version ids are joined verbatim onto the data directory. An empty id
// would address the data directory itself, so it is the one value refused.
type versionDirParams struct {
	DataDir   string `json:"dataDir"`
	VersionID string `json:"versionId"`
}

func (p *versionDirParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.DataDir, validation.Required),
		validation.Field(&p.VersionID, validation.Required),
	)
}

type cloneDirParams struct {
	DataDir  string `json:"dataDir"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

func (p *cloneDirParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.DataDir, validation.Required),
		validation.Field(&p.SourceID, validation.Required),
		validation.Field(&p.TargetID, validation.Required),
	)
}

type versionIDParams struct {
	VersionID string `json:"versionId"`
}

func (p *versionIDParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.VersionID, validation.Required),
	)
}

type createVersionParams struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

func (p *createVersionParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.Name, validation.Required),
	)
}

type cloneVersionParams struct {
	SourceID  string `json:"sourceId"`
	NewID     string `json:"newId"`
	NewName   string `json:"newName"`
	NewAuthor string `json:"newAuthor"`
}

func (p *cloneVersionParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.SourceID, validation.Required),
		validation.Field(&p.NewID, validation.Required),
		validation.Field(&p.NewName, validation.Required),
	)
}

type updateVersionParams struct {
	VersionID string `json:"versionId"`
	manifest.Update
}

func (p *updateVersionParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.VersionID, validation.Required),
	)
}
