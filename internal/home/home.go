package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the darkroom home directory.
	DefaultDirName = ".darkroom"

	// ShootsDirName is the subdirectory holding Shoot documents.
	ShootsDirName = "shoots"

	// ShootImagesDirName is the subdirectory holding snapshot image blobs.
	ShootImagesDirName = "shoots-images"

	// ExportsDirName is the subdirectory for generated exports (contact sheets).
	ExportsDirName = "exports"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the darkroom home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.darkroom).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ShootsDir returns the directory holding Shoot documents.
func (d *Dir) ShootsDir() string {
	return filepath.Join(d.path, ShootsDirName)
}

// ShootImagesDir returns the blob directory for a single Shoot.
func (d *Dir) ShootImagesDir(shootID string) string {
	return filepath.Join(d.path, ShootImagesDirName, shootID)
}

// ExportsDir returns the directory for exported files.
func (d *Dir) ExportsDir() string {
	return filepath.Join(d.path, ExportsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.ShootsDir(), filepath.Join(d.path, ShootImagesDirName), d.ExportsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
