package catalog

// Index defines the catalog operations consumers depend on.
type Index interface {
	UpsertFile(f FileRow) error
	DeleteFile(path string) error
	DeleteVersion(version string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Versions() ([]VersionRow, error)
	Files(version string) ([]FileRow, error)
	Close() error
}

// Verify *DB satisfies Index at compile time.
var _ Index = (*DB)(nil)
