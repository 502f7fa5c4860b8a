package commands

import (
	"context"
	"encoding/json"

	"github.com/starford/cravetown/internal/versionservice"
)

// Command names.
const (
	ReadJSONFile           = "read_json_file"
	WriteJSONFile          = "write_json_file"
	GetDataDir             = "get_data_dir"
	CreateVersionDirectory = "create_version_directory"
	CloneVersionDirectory  = "clone_version_directory"
	DeleteVersionDirectory = "delete_version_directory"
	ListVersions           = "list_versions"
	ListVersionFiles       = "list_version_files"
	LoadVersionsManifest   = "load_versions_manifest"
	CreateVersion          = "create_version"
	CloneVersion           = "clone_version"
	DeleteVersion          = "delete_version"
	UpdateVersionMetadata  = "update_version_metadata"
	SwitchActiveVersion    = "switch_active_version"
)

var (
	pDataDir   = Param{Name: "dataDir", Description: "Data directory returned by get_data_dir", Required: true}
	pVersionID = Param{Name: "versionId", Description: "Version identifier, used verbatim as a directory name", Required: true}
)

// New returns a registry with every backend command bound to svc.
func New(svc *versionservice.Service) *Registry {
	r := NewRegistry()

	r.Register(Command{
		Name:        ReadJSONFile,
		Description: "Read the full text content of a file at an absolute path.",
		Params:      []Param{{Name: "filePath", Description: "Absolute path of the file", Required: true}},
		Handler: typed(func(ctx context.Context, p *readFileParams) (any, error) {
			return svc.ReadJSONFile(ctx, p.FilePath)
		}),
	})

	r.Register(Command{
		Name:        WriteJSONFile,
		Description: "Replace the content of a file at an absolute path. The parent directory must exist.",
		Params: []Param{
			{Name: "filePath", Description: "Absolute path of the file", Required: true},
			{Name: "content", Description: "New file content"},
		},
		Handler: typed(func(ctx context.Context, p *writeFileParams) (any, error) {
			return nil, svc.WriteJSONFile(ctx, p.FilePath, p.Content)
		}),
	})

	r.Register(Command{
		Name:        GetDataDir,
		Description: "Return the directory holding every version directory.",
		Handler: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return svc.DataDir(ctx)
		},
	})

	r.Register(Command{
		Name:        CreateVersionDirectory,
		Description: "Create a version directory populated with placeholder JSON files.",
		Params:      []Param{pDataDir, pVersionID},
		Handler: typed(func(ctx context.Context, p *versionDirParams) (any, error) {
			return nil, svc.CreateVersionDirectory(ctx, p.DataDir, p.VersionID)
		}),
	})

	r.Register(Command{
		Name:        CloneVersionDirectory,
		Description: "Copy a version directory to a new, not yet existing version id.",
		Params: []Param{
			pDataDir,
			{Name: "sourceId", Description: "Version to copy", Required: true},
			{Name: "targetId", Description: "New version id", Required: true},
		},
		Handler: typed(func(ctx context.Context, p *cloneDirParams) (any, error) {
			return nil, svc.CloneVersionDirectory(ctx, p.DataDir, p.SourceID, p.TargetID)
		}),
	})

	r.Register(Command{
		Name:        DeleteVersionDirectory,
		Description: "Delete a version directory and everything inside it.",
		Params:      []Param{pDataDir, pVersionID},
		Handler: typed(func(ctx context.Context, p *versionDirParams) (any, error) {
			return nil, svc.DeleteVersionDirectory(ctx, p.DataDir, p.VersionID)
		}),
	})

	r.Register(Command{
		Name:        ListVersions,
		Description: "List versions found on disk and in versions.json.",
		Handler: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return svc.ListVersions(ctx)
		},
	})

	r.Register(Command{
		Name:        ListVersionFiles,
		Description: "List the catalogued JSON files of a version with their checksums.",
		Params:      []Param{pVersionID},
		Handler: typed(func(ctx context.Context, p *versionIDParams) (any, error) {
			return svc.VersionFiles(ctx, p.VersionID)
		}),
	})

	r.Register(Command{
		Name:        LoadVersionsManifest,
		Description: "Return the versions.json manifest.",
		Handler: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return svc.LoadManifest(ctx)
		},
	})

	r.Register(Command{
		Name:        CreateVersion,
		Description: "Create a blank version and register it in versions.json.",
		Params: []Param{
			{Name: "id", Description: "New version id", Required: true},
			{Name: "name", Description: "Display name", Required: true},
			{Name: "description", Description: "Free-form description"},
			{Name: "author", Description: "Author name"},
		},
		Handler: typed(func(ctx context.Context, p *createVersionParams) (any, error) {
			return svc.CreateVersion(ctx, p.ID, p.Name, p.Description, p.Author)
		}),
	})

	r.Register(Command{
		Name:        CloneVersion,
		Description: "Clone a registered version and register the copy in versions.json.",
		Params: []Param{
			{Name: "sourceId", Description: "Version to copy", Required: true},
			{Name: "newId", Description: "New version id", Required: true},
			{Name: "newName", Description: "Display name of the copy", Required: true},
			{Name: "newAuthor", Description: "Author of the copy"},
		},
		Handler: typed(func(ctx context.Context, p *cloneVersionParams) (any, error) {
			return svc.CloneVersion(ctx, p.SourceID, p.NewID, p.NewName, p.NewAuthor)
		}),
	})

	r.Register(Command{
		Name:        DeleteVersion,
		Description: "Delete a registered version. The base and the active version cannot be deleted.",
		Params:      []Param{pVersionID},
		Handler: typed(func(ctx context.Context, p *versionIDParams) (any, error) {
			return nil, svc.DeleteVersion(ctx, p.VersionID)
		}),
	})

	r.Register(Command{
		Name:        UpdateVersionMetadata,
		Description: "Update name, description, author, tags or thumbnail of a version.",
		Params: []Param{
			pVersionID,
			{Name: "name", Description: "Display name"},
			{Name: "description", Description: "Description"},
			{Name: "author", Description: "Author"},
			{Name: "tags", Description: "Replacement tag list", List: true},
			{Name: "thumbnail", Description: "Thumbnail path"},
		},
		Handler: typed(func(ctx context.Context, p *updateVersionParams) (any, error) {
			return svc.UpdateVersionMetadata(ctx, p.VersionID, p.Update)
		}),
	})

	r.Register(Command{
		Name:        SwitchActiveVersion,
		Description: "Mark a version as the active one.",
		Params:      []Param{pVersionID},
		Handler: typed(func(ctx context.Context, p *versionIDParams) (any, error) {
			return svc.SwitchActiveVersion(ctx, p.VersionID)
		}),
	})

	return r
}
