package versionservice

import (
	"context"
	"fmt"

	"github.com/starford/cravetown/internal/apperr"
	"github.com/starford/cravetown/internal/manifest"
)

// LoadManifest returns the versions manifest of the data directory.
func (s *Service) LoadManifest(ctx context.Context) (*manifest.Manifest, error) {
	dataDir, err := s.DataDir(ctx)
	if err != nil {
		return nil, err
	}
	return manifest.Load(s.store, dataDir)
}

// CreateVersion creates a blank version directory and registers it.
func (s *Service) CreateVersion(ctx context.Context, id, name, description, author string) (*manifest.Version, error) {
	dataDir, err := s.DataDir(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := manifest.Load(s.store, dataDir)
	if err != nil {
		return nil, err
	}
	if m.Find(id) != nil {
		return nil, fmt.Errorf("version with id '%s' already exists: %w", id, apperr.ErrAlreadyExists)
	}

	now := s.now()
	v := manifest.NewVersion(id, name, description, author, now)
	if err := s.versions.Create(dataDir, id); err != nil {
		return nil, err
	}
	if err := m.Add(v, now); err != nil {
		return nil, err
	}
	if err := manifest.Save(s.store, dataDir, m); err != nil {
		return nil, err
	}
	s.resync(dataDir)
	return &v, nil
}

// CloneVersion copies a registered version and registers the copy.
func (s *Service) CloneVersion(ctx context.Context, sourceID, newID, newName, newAuthor string) (*manifest.Version, error) {
	dataDir, err := s.DataDir(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := manifest.Load(s.store, dataDir)
	if err != nil {
		return nil, err
	}
	source := m.Find(sourceID)
	if source == nil {
		return nil, fmt.Errorf("source version '%s' not found: %w", sourceID, apperr.ErrNotFound)
	}
	if m.Find(newID) != nil {
		return nil, fmt.Errorf("version with id '%s' already exists: %w", newID, apperr.ErrAlreadyExists)
	}

	now := s.now()
	v := manifest.CloneVersion(*source, newID, newName, newAuthor, now)
	if err := s.versions.Clone(dataDir, sourceID, newID); err != nil {
		return nil, err
	}
	if err := m.Add(v, now); err != nil {
		return nil, err
	}
	if err := manifest.Save(s.store, dataDir, m); err != nil {
		return nil, err
	}
	s.resync(dataDir)
	return &v, nil
}

// DeleteVersion removes a registered version. The base version and the
// active version are refused.
func (s *Service) DeleteVersion(ctx context.Context, id string) error {
	dataDir, err := s.DataDir(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := manifest.Load(s.store, dataDir)
	if err != nil {
		return err
	}
	if err := m.CheckDeletable(id); err != nil {
		return err
	}
	if m.Find(id) == nil {
		return fmt.Errorf("version '%s' not found: %w", id, apperr.ErrNotFound)
	}
	if err := s.versions.Delete(dataDir, id); err != nil {
		return err
	}
	if err := m.Remove(id, s.now()); err != nil {
		return err
	}
	if err := manifest.Save(s.store, dataDir, m); err != nil {
		return err
	}
	s.resync(dataDir)
	return nil
}

// UpdateVersionMetadata applies u to the version with id.
func (s *Service) UpdateVersionMetadata(ctx context.Context, id string, u manifest.Update) (*manifest.Version, error) {
	dataDir, err := s.DataDir(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := manifest.Load(s.store, dataDir)
	if err != nil {
		return nil, err
	}
	v, err := m.Apply(id, u, s.now())
	if err != nil {
		return nil, err
	}
	if err := manifest.Save(s.store, dataDir, m); err != nil {
		return nil, err
	}
	out := *v
	return &out, nil
}

// SwitchActiveVersion makes id the active version.
func (s *Service) SwitchActiveVersion(ctx context.Context, id string) (*manifest.Manifest, error) {
	dataDir, err := s.DataDir(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := manifest.Load(s.store, dataDir)
	if err != nil {
		return nil, err
	}
	if err := m.SetActive(id, s.now()); err != nil {
		return nil, err
	}
	if err := manifest.Save(s.store, dataDir, m); err != nil {
		return nil, err
	}
	return m, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
