// Package manifest reads and writes versions.json, the catalogue of
// version metadata kept at the root of the data directory.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/starford/cravetown/internal/apperr"
)

const (
	// FileName is the manifest file name inside the data directory.
	FileName = "versions.json"
	// BaseVersion is the version that always exists and cannot be deleted.
	BaseVersion = "base"

	dateLayout = "2006-01-02"
)

// Version is the metadata of one version directory.
type Version struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Author        string   `json:"author"`
	Version       string   `json:"version"`
	Active        bool     `json:"active"`
	CreatedDate   string   `json:"createdDate"`
	LastModified  string   `json:"lastModified"`
	DataPath      string   `json:"dataPath"`
	Thumbnail     *string  `json:"thumbnail"`
	Tags          []string `json:"tags"`
	ParentVersion string   `json:"parentVersion,omitempty"`
}

// Metadata holds manifest-level bookkeeping.
type Metadata struct {
	LastUpdated string `json:"lastUpdated"`
}

// Manifest is the decoded content of versions.json.
type Manifest struct {
	ActiveVersion string    `json:"activeVersion"`
	Versions      []Version `json:"versions"`
	Metadata      Metadata  `json:"metadata"`
}

// Update carries optional metadata changes; nil fields are left alone.
type Update struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Author      *string   `json:"author,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Thumbnail   *string   `json:"thumbnail,omitempty"`
}

// Store is the subset of storage.Provider the manifest needs.
type Store interface {
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
}

// Path returns the manifest location inside dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Today formats t the way manifest dates are stored.
func Today(t time.Time) string {
	return t.Format(dateLayout)
}

// New returns an empty manifest pointing at the base version.
func New() *Manifest {
	return &Manifest{ActiveVersion: BaseVersion, Versions: []Version{}}
}

// Load reads the manifest from dataDir. A missing file yields New().
func Load(store Store, dataDir string) (*Manifest, error) {
	data, err := store.Read(Path(dataDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, err
	}
	m := New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if m.ActiveVersion == "" {
		m.ActiveVersion = BaseVersion
	}
	if m.Versions == nil {
		m.Versions = []Version{}
	}
	return m, nil
}

// Save writes the manifest to dataDir as indented JSON.
func Save(store Store, dataDir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", FileName, err)
	}
	return store.Write(Path(dataDir), append(data, '\n'))
}

// Find returns the version with id, or nil.
func (m *Manifest) Find(id string) *Version {
	for i := range m.Versions {
		if m.Versions[i].ID == id {
			return &m.Versions[i]
		}
	}
	return nil
}

// Add appends v. Duplicate ids are rejected.
func (m *Manifest) Add(v Version, now time.Time) error {
	if m.Find(v.ID) != nil {
		return fmt.Errorf("version with id '%s' already exists: %w", v.ID, apperr.ErrAlreadyExists)
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	m.Versions = append(m.Versions, v)
	m.Metadata.LastUpdated = Today(now)
	return nil
}

// Remove deletes the entry for id.
func (m *Manifest) Remove(id string, now time.Time) error {
	idx := slices.IndexFunc(m.Versions, func(v Version) bool { return v.ID == id })
	if idx < 0 {
		return fmt.Errorf("version '%s' not found: %w", id, apperr.ErrNotFound)
	}
	m.Versions = slices.Delete(m.Versions, idx, idx+1)
	m.Metadata.LastUpdated = Today(now)
	return nil
}

// CheckDeletable rejects the base version and the active version.
func (m *Manifest) CheckDeletable(id string) error {
	if id == BaseVersion {
		return fmt.Errorf("cannot delete base version: %w", apperr.ErrProtected)
	}
	if m.ActiveVersion == id {
		return fmt.Errorf("cannot delete the active version, switch to another version first: %w", apperr.ErrProtected)
	}
	return nil
}

// SetActive marks id as the active version.
func (m *Manifest) SetActive(id string, now time.Time) error {
	if m.Find(id) == nil {
		return fmt.Errorf("version '%s' not found: %w", id, apperr.ErrNotFound)
	}
	for i := range m.Versions {
		m.Versions[i].Active = m.Versions[i].ID == id
	}
	m.ActiveVersion = id
	m.Metadata.LastUpdated = Today(now)
	return nil
}

// Apply merges u into the version with id and bumps its lastModified date.
func (m *Manifest) Apply(id string, u Update, now time.Time) (*Version, error) {
	v := m.Find(id)
	if v == nil {
		return nil, fmt.Errorf("version '%s' not found: %w", id, apperr.ErrNotFound)
	}
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Description != nil {
		v.Description = *u.Description
	}
	if u.Author != nil {
		v.Author = *u.Author
	}
	if u.Tags != nil {
		v.Tags = slices.Clone(*u.Tags)
	}
	if u.Thumbnail != nil {
		thumb := *u.Thumbnail
		v.Thumbnail = &thumb
	}
	v.LastModified = Today(now)
	m.Metadata.LastUpdated = v.LastModified
	return v, nil
}

// NewVersion builds metadata for a freshly created version.
func NewVersion(id, name, description, author string, now time.Time) Version {
	today := Today(now)
	return Version{
		ID:           id,
		Name:         name,
		Description:  description,
		Author:       author,
		Version:      "1.0.0",
		CreatedDate:  today,
		LastModified: today,
		DataPath:     "data/" + id,
		Tags:         []string{},
	}
}

// CloneVersion builds metadata for newID cloned from source.
func CloneVersion(source Version, newID, newName, newAuthor string, now time.Time) Version {
	v := NewVersion(newID, newName, "Cloned from "+source.Name, newAuthor, now)
	v.Tags = slices.Clone(source.Tags)
	if v.Tags == nil {
		v.Tags = []string{}
	}
	v.ParentVersion = source.ID
	return v
}
